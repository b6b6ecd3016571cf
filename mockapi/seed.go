package mockapi

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

const (
	seedPostsPerUser    = 10
	seedCommentsPerPost = 5
)

type seedUser struct {
	name, username, email, city, phone, website, company string
}

var seedUsers = []seedUser{ //nolint:gochecknoglobals
	{"Leanne Graham", "Bret", "Sincere@april.biz", "Gwenborough", "1-770-736-8031 x56442", "hildegard.org", "Romaguera-Crona"},
	{"Ervin Howell", "Antonette", "Shanna@melissa.tv", "Wisokyburgh", "010-692-6593 x09125", "anastasia.net", "Deckow-Crist"},
	{"Clementine Bauch", "Samantha", "Nathan@yesenia.net", "McKenziehaven", "1-463-123-4447", "ramiro.info", "Romaguera-Jacobson"},
	{"Patricia Lebsack", "Karianne", "Julianne.OConner@kory.org", "South Elvis", "493-170-9623 x156", "kale.biz", "Robel-Corkery"},
	{"Chelsey Dietrich", "Kamren", "Lucio_Hettinger@annie.ca", "Roscoeview", "(254)954-1289", "demarco.info", "Keebler LLC"},
	{"Mrs. Dennis Schulist", "Leopoldo_Corkery", "Karley_Dach@jasper.info", "South Christy", "1-477-935-8478 x6430", "ola.org", "Considine-Lockman"},
	{"Kurtis Weissnat", "Elwyn.Skiles", "Telly.Hoeger@billy.biz", "Howemouth", "210.067.6132", "elvis.io", "Johns Group"},
	{"Nicholas Runolfsdottir V", "Maxime_Nienow", "Sherwood@rosamond.me", "Aliyaview", "586.493.6943 x140", "jacynthe.com", "Abernathy Group"},
	{"Glenna Reichert", "Delphine", "Chaim_McDermott@dana.io", "Bartholomebury", "(775)976-6794 x41206", "conrad.com", "Yost and Sons"},
	{"Clementina DuBuque", "Moriah.Stanton", "Rey.Padberg@karina.biz", "Lebsackbury", "024-648-3804", "ambrose.net", "Hoeger LLC"},
}

const firstPostTitle = "sunt aut facere repellat provident occaecati excepturi optio reprehenderit"

func seedUserValues() []ldvalue.Value {
	ret := make([]ldvalue.Value, 0, len(seedUsers))
	for i, u := range seedUsers {
		ret = append(ret, ldvalue.ObjectBuild().
			SetInt("id", i+1).
			SetString("name", u.name).
			SetString("username", u.username).
			SetString("email", u.email).
			Set("address", ldvalue.ObjectBuild().SetString("city", u.city).Build()).
			SetString("phone", u.phone).
			SetString("website", u.website).
			Set("company", ldvalue.ObjectBuild().SetString("name", u.company).Build()).
			Build())
	}
	return ret
}

func seedPostValues() []ldvalue.Value {
	ret := make([]ldvalue.Value, 0, len(seedUsers)*seedPostsPerUser)
	for userID := 1; userID <= len(seedUsers); userID++ {
		for k := 0; k < seedPostsPerUser; k++ {
			id := len(ret) + 1
			title := fmt.Sprintf("post %d by %s", id, strings.ToLower(seedUsers[userID-1].username))
			if id == 1 {
				title = firstPostTitle
			}
			ret = append(ret, ldvalue.ObjectBuild().
				SetInt("userId", userID).
				SetInt("id", id).
				SetString("title", title).
				SetString("body", fmt.Sprintf("body of post %d", id)).
				Build())
		}
	}
	return ret
}

func seedCommentValues(postCount int) []ldvalue.Value {
	ret := make([]ldvalue.Value, 0, postCount*seedCommentsPerPost)
	for postID := 1; postID <= postCount; postID++ {
		for k := 0; k < seedCommentsPerPost; k++ {
			id := len(ret) + 1
			ret = append(ret, ldvalue.ObjectBuild().
				SetInt("postId", postID).
				SetInt("id", id).
				SetString("name", fmt.Sprintf("comment %d", id)).
				SetString("email", fmt.Sprintf("commenter%d@example.com", id)).
				SetString("body", fmt.Sprintf("body of comment %d on post %d", id, postID)).
				Build())
		}
	}
	return ret
}
