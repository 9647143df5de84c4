package services

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// checkLocalSession rejects stored records that cannot possibly be valid,
// so they are dropped without asking the backend. Opaque tokens only need
// to be non-empty; JWT-shaped ones must parse and not be expired. The
// signature is not checked here, the backend does that.
func checkLocalSession(s *models.Session, now time.Time) error {
	if s == nil || strings.TrimSpace(s.Token) == "" {
		return common.ErrInvalidToken
	}
	if strings.Count(s.Token, ".") != 2 {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return errors.Join(common.ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return errors.Join(common.ErrInvalidToken, err)
	}
	if exp != nil && !now.Before(exp.Time) {
		return common.ErrTokenExpired
	}
	return nil
}
