package user

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUser_Summary(t *testing.T) {
	req := require.New(t)
	u := User{ID: "1", Username: "alice", Email: "a@example.com", Fullname: "Alice", Avatar: "avatars/1/x.png"}

	req.Equal(Summary{ID: "1", Username: "alice", Fullname: "Alice", Avatar: "avatars/1/x.png"}, u.Summary())
}
