package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/sak85/API-Automation-POC/report"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "runId"
	summaryAttribute  = "summary"

	defaultTableName = "harness-runs"

	// We won't try to store items whose total size exceeds this. The DynamoDB documentation says
	// only "400KB", so this is rounded down.
	dynamoDBMaxItemSize = 400000
)

// DynamoDB writes each summary as one item keyed by run ID.
type DynamoDB struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// OpenDynamoDB connects using a URL such as "dynamodb://harness-runs?region=us-east-1" or, for a
// local emulator, "dynamodb://harness-runs?endpoint=http://localhost:8000". Credentials come from
// the usual AWS environment.
func OpenDynamoDB(u *url.URL) (*DynamoDB, error) {
	config := aws.NewConfig()
	if region := u.Query().Get("region"); region != "" {
		config = config.WithRegion(region)
	}
	if endpoint := u.Query().Get("endpoint"); endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("could not create AWS session: %w", err)
	}
	table := strings.Trim(u.Host+u.Path, "/")
	if table == "" {
		table = defaultTableName
	}
	return &DynamoDB{client: dynamodb.New(sess), table: table}, nil
}

func (d *DynamoDB) DSN() string { return "dynamodb://" + d.table }

// CreateTable creates the table with the run ID as its partition key.
func (d *DynamoDB) CreateTable(ctx context.Context) error {
	_, err := d.client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(tablePartitionKey),
				AttributeType: aws.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(tablePartitionKey),
				KeyType:       aws.String("HASH"),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
		TableName: aws.String(d.table),
	})
	return err
}

func (d *DynamoDB) Publish(ctx context.Context, summary report.Summary) error {
	summaryJSON := string(summary.JSON())
	item := map[string]*dynamodb.AttributeValue{
		tablePartitionKey: {S: aws.String(summary.RunID)},
		"mode":            {S: aws.String(summary.Mode)},
		"startedAt":       {S: aws.String(summary.StartedAt.Format(time.RFC3339Nano))},
		"passed":          {N: aws.String(strconv.Itoa(summary.Passed))},
		"failed":          {N: aws.String(strconv.Itoa(summary.Failed))},
		"skipped":         {N: aws.String(strconv.Itoa(summary.Skipped))},
	}
	if len(summaryJSON) < dynamoDBMaxItemSize {
		item[summaryAttribute] = &dynamodb.AttributeValue{S: aws.String(summaryJSON)}
	}
	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	return err
}

func (d *DynamoDB) Close() error { return nil }
