package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/logger"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

// maxCauseLength bounds the serialized cause stored per fault.
const maxCauseLength = 10000

// zeroFaultUUID is handed out when the ledger itself fails, so the client
// still gets a reference shape without a usable lookup key.
const zeroFaultUUID = "00000000-0000-0000-0000-000000000000"

// FaultService records unexpected internal failures and hands back a stable
// reference identifier. Identical causes share one record. Recording never
// fails outward: a broken ledger degrades to the zero identifier.
type FaultService struct {
	ledger port.FaultLedger
}

// NewFaultService constructs a FaultService instance.
func NewFaultService(ledger port.FaultLedger) *FaultService {
	return &FaultService{ledger: ledger}
}

// Record persists the cause and returns the reference identifier for client
// responses. Backend marks server-side faults as opposed to ones reported by
// the frontend.
func (s *FaultService) Record(ctx context.Context, cause any, backend bool) string {
	serialized := serializeCause(cause)
	log := logger.WithContext(ctx)

	log.Error("internal fault",
		zap.String("cause", serialized),
		zap.Bool("backend", backend),
	)

	if s.ledger == nil {
		return zeroFaultUUID
	}

	existing, err := s.ledger.GetByCause(ctx, serialized)
	if err == nil {
		return existing.UUID
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Error("fault ledger lookup failed", zap.Error(err))
		return zeroFaultUUID
	}

	fault := domain.Fault{
		UUID:      uuid.NewString(),
		Cause:     serialized,
		Backend:   backend,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.Insert(ctx, fault); err != nil {
		log.Error("fault ledger insert failed", zap.Error(err))
		return zeroFaultUUID
	}

	return fault.UUID
}

func serializeCause(cause any) string {
	var serialized string
	switch v := cause.(type) {
	case nil:
		serialized = "unknown cause"
	case error:
		serialized = v.Error()
	case string:
		serialized = v
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			serialized = fmt.Sprintf("%v", v)
		} else {
			serialized = string(payload)
		}
	}

	if serialized == "" {
		serialized = "unknown cause"
	}
	if len(serialized) > maxCauseLength {
		serialized = serialized[:maxCauseLength]
	}

	return serialized
}
