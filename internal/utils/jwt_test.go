package utils_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/GTDGit/tirestore_api/internal/utils"
)

func TestJWTRoundTrip(t *testing.T) {
	c := qt.New(t)
	utils.InitJWT("test-secret", time.Hour)

	token, err := utils.GenerateJWT(7, "ops@example.com")
	c.Assert(err, qt.IsNil)

	claims, err := utils.ValidateJWT(token)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.UserID, qt.Equals, 7)
	c.Assert(claims.Email, qt.Equals, "ops@example.com")
}

func TestValidateJWTRejects(t *testing.T) {
	c := qt.New(t)
	utils.InitJWT("test-secret", time.Hour)
	token, err := utils.GenerateJWT(7, "ops@example.com")
	c.Assert(err, qt.IsNil)

	utils.InitJWT("other-secret", time.Hour)
	_, err = utils.ValidateJWT(token)
	c.Assert(err, qt.ErrorIs, utils.ErrInvalidToken)

	_, err = utils.ValidateJWT("not-a-token")
	c.Assert(err, qt.ErrorIs, utils.ErrInvalidToken)
}
