package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte

	// Now is overridable in tests.
	Now func() time.Time
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *Issuer) IssueAccess(userID, role string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(AccessTTL)
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (i *Issuer) IssueRefresh(userID string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(RefreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (i *Issuer) IssuePair(userID, role string) (*Pair, error) {
	access, accessExp, err := i.IssueAccess(userID, role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (i *Issuer) ParseAccess(token string) (*AccessClaims, error) {
	return AccessClaimsFromToken(token, i.AccessSecret)
}

func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	return RefreshClaimsFromToken(token, i.RefreshSecret)
}
