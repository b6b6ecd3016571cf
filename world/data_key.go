package world

// DataKey names a test data slot used by the built-in steps. Each key is stored under its
// String() name, so a step that uses SetTestData("userId", ...) and one that uses
// Data(UserID) see the same value.
type DataKey int

const (
	UserID DataKey = iota
	PostID
	UserData
	PostData
	UpdatedUserData
	UpdatedPostData
)

var dataKeyNames = [...]string{ //nolint:gochecknoglobals
	UserID:          "userId",
	PostID:          "postId",
	UserData:        "userData",
	PostData:        "postData",
	UpdatedUserData: "updatedUserData",
	UpdatedPostData: "updatedPostData",
}

func (k DataKey) String() string {
	if k < 0 || int(k) >= len(dataKeyNames) {
		return "unknownKey"
	}
	return dataKeyNames[k]
}
