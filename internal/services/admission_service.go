package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/auth"
	"github.com/yoockh/yootranslate/internal/cache"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/utils"
)

// RoomPrefix is the reserved prefix every admissible room name carries.
const RoomPrefix = "call-"

const (
	redeemLeeway  = 5 * time.Second
	minLedgerHold = redeemLeeway + time.Second
)

type AdmissionService interface {
	// ActiveRoom returns the canonical room callers join by default.
	ActiveRoom() string
	// IssueToken signs a short-lived credential that can join exactly one room.
	IssueToken(ctx context.Context, identity, room string) (*models.AdmissionToken, error)
	// Redeem verifies a credential and consumes it. Each token redeems once.
	Redeem(ctx context.Context, token string) (*models.AdmissionClaims, error)
}

type AdmissionOptions struct {
	APIKey      string
	APISecret   string
	DefaultRoom string
	TokenTTL    time.Duration
	Ledger      cache.Ledger
}

type admissionService struct {
	apiKey      string
	apiSecret   string
	defaultRoom string
	ttl         time.Duration
	ledger      cache.Ledger
	now         func() time.Time
}

func NewAdmissionService(opts AdmissionOptions) AdmissionService {
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = RoomPrefix + "main"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 10 * time.Minute
	}
	if opts.Ledger == nil {
		opts.Ledger = cache.NewMemoryLedger()
	}
	return &admissionService{
		apiKey:      opts.APIKey,
		apiSecret:   opts.APISecret,
		defaultRoom: opts.DefaultRoom,
		ttl:         opts.TokenTTL,
		ledger:      opts.Ledger,
		now:         time.Now,
	}
}

func ValidRoomName(room string) bool {
	return strings.HasPrefix(room, RoomPrefix)
}

func (s *admissionService) ActiveRoom() string { return s.defaultRoom }

func (s *admissionService) IssueToken(_ context.Context, identity, room string) (*models.AdmissionToken, error) {
	const op = "AdmissionService.IssueToken"

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid participant name", utils.ErrInvalidIdentity)
	}
	room = strings.TrimSpace(room)
	if room == "" {
		room = s.defaultRoom
	}
	if !ValidRoomName(room) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid room name format", utils.ErrInvalidRoomName)
	}
	if s.apiKey == "" || s.apiSecret == "" {
		return nil, utils.E(utils.CodeInternal, op, "credential material unavailable", utils.ErrSigningFailure)
	}

	// RoomJoin scoped to one room is the whole grant: no admin, create, list or record.
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}
	at := auth.NewAccessToken(s.apiKey, s.apiSecret)
	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(identity).
		SetValidFor(s.ttl)

	expiresAt := s.now().Add(s.ttl).UTC()
	signed, err := at.ToJWT()
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to sign token", fmt.Errorf("%w: %v", utils.ErrSigningFailure, err))
	}

	return &models.AdmissionToken{
		Token:     signed,
		Identity:  identity,
		Room:      room,
		Grant:     models.RoomGrant{RoomJoin: true, Room: room},
		ExpiresAt: expiresAt,
	}, nil
}

type admissionClaims struct {
	jwt.RegisteredClaims
	Name  string         `json:"name"`
	Video map[string]any `json:"video"`
}

// joinGrant returns the room of a grant that carries roomJoin and nothing
// else. Any other permission that is set, known to this service or not,
// disqualifies the token.
func joinGrant(video map[string]any) (string, bool) {
	if join, _ := video["roomJoin"].(bool); !join {
		return "", false
	}
	room, _ := video["room"].(string)
	for k, v := range video {
		if k == "roomJoin" || k == "room" {
			continue
		}
		if grantSet(v) {
			return "", false
		}
	}
	return room, true
}

func grantSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func (s *admissionService) Redeem(ctx context.Context, raw string) (*models.AdmissionClaims, error) {
	const op = "AdmissionService.Redeem"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing token", utils.ErrInvalidToken)
	}
	if s.apiSecret == "" {
		return nil, utils.E(utils.CodeInternal, op, "credential material unavailable", utils.ErrSigningFailure)
	}

	claims := &admissionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.apiSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(redeemLeeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || tok == nil || !tok.Valid {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid token", utils.ErrInvalidToken)
	}

	room, ok := joinGrant(claims.Video)
	if !ok {
		return nil, utils.E(utils.CodeForbidden, op, "token does not carry a join grant", utils.ErrInvalidToken)
	}
	if !ValidRoomName(room) {
		return nil, utils.E(utils.CodeForbidden, op, "Invalid room name format", utils.ErrInvalidRoomName)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, utils.E(utils.CodeForbidden, op, "token has no identity", utils.ErrInvalidIdentity)
	}

	// hold the claim for as long as the verifier would still accept the token
	expiresAt := claims.ExpiresAt.Time
	hold := max(expiresAt.Add(redeemLeeway).Sub(s.now()), minLedgerHold)
	fp := utils.Fingerprint(raw)
	ok, err = s.ledger.Claim(ctx, fp, hold)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "token ledger unavailable", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeConflict, op, "token already used", utils.ErrTokenReplayed)
	}

	return &models.AdmissionClaims{
		Identity:    claims.Subject,
		Name:        claims.Name,
		Room:        room,
		ExpiresAt:   expiresAt.UTC(),
		Fingerprint: fp,
	}, nil
}
