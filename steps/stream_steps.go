package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/validation"
)

// LastEventKey is the test data key that holds the data of the most recent awaited event.
const LastEventKey = "lastEvent"

func (s *Scenario) registerStreamSteps(r StepRegistrar) {
	r.Step(`^I open an event stream to "([^"]*)"$`, s.openStream)
	r.Step(`^I should receive an? "([^"]*)" event within (\d+) seconds?$`, s.receiveEvent)
	r.Step(`^the event field "([^"]*)" should be "([^"]*)"$`, s.eventFieldShouldBe)
}

// openStream subscribes with the step's context for the request but keeps the stream open for
// later steps; ClearContext closes it.
func (s *Scenario) openStream(ctx context.Context, path string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	stream, err := client.Subscribe(context.WithoutCancel(ctx), s.expand(path))
	if err != nil {
		return err
	}
	s.World.AddStream(stream)
	return nil
}

func (s *Scenario) receiveEvent(ctx context.Context, name string, seconds int) error {
	stream, ok := s.World.LatestStream()
	if !ok {
		return fmt.Errorf("no event stream has been opened")
	}
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
	defer cancel()
	event, err := stream.WaitFor(waitCtx, name)
	if err != nil {
		return validation.Assertf(validation.CheckLatency, "Did not receive a %q event within %ds: %s", name, seconds, err)
	}
	s.World.SetTestData(LastEventKey, eventValue(event))
	s.logger().Infof("Received %q event %s", event.Name, event.ID)
	return nil
}

// eventValue parses the event data as JSON, keeping it as a string if it is not JSON.
func eventValue(event apiclient.Event) ldvalue.Value {
	if v := ldvalue.Parse([]byte(event.Data)); !v.IsNull() {
		return v
	}
	return ldvalue.String(event.Data)
}

func (s *Scenario) eventFieldShouldBe(field, expected string) error {
	event, ok := s.World.TestData(LastEventKey).Get()
	if !ok {
		return fmt.Errorf("no event has been received")
	}
	return validation.ValidateEqual(field, parseLiteral(s.expand(expected)), event)
}
