package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT issued to marketplace callers. The actor
// id and role are everything the lifecycle engine needs to authorize actions.
type AccessTokenClaims struct {
	ActorID uuid.UUID       `json:"actor_id"`
	Role    enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
