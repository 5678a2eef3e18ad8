package auth

import (
	"github.com/gin-gonic/gin"
)

const (
	userKey        = "koe.user"
	accessTokenKey = "koe.access_token"
)

// SetUser stores the resolved user on the request context.
func SetUser(c *gin.Context, u *User) {
	c.Set(userKey, u)
}

// CurrentUser returns the user resolved for this request.
func CurrentUser(c *gin.Context) (*User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok && u != nil
}

// AccessToken returns the access token the request was authenticated with,
// after any rotation.
func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}
