package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"familyfitness/wod-server/internal/storage"
	"familyfitness/wod-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrSessionNotFinished = errors.New("only completed or cancelled sessions can be exported")
)

const exportContentType = "text/csv"

// SessionExport describes an uploaded scoreboard.
type SessionExport struct {
	SessionID   string    `json:"sessionId"`
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Rows        int       `json:"rows"`
}

// --- Service Interface ---
type ExportService interface {
	ExportSessionResults(ctx context.Context, sessionID string) (*SessionExport, error)
}

// --- Service Implementation ---
type exportService struct {
	sessions SessionService
	scores   ScoreService
	files    storage.FileStorage
	expiry   time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewExportService creates a new instance of exportService.
func NewExportService(sessions SessionService, scores ScoreService, files storage.FileStorage, expiry time.Duration, log *zap.Logger) ExportService {
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	return &exportService{
		sessions: sessions,
		scores:   scores,
		files:    files,
		expiry:   expiry,
		log:      logger.OrNop(log).Named("export"),
		now:      time.Now,
	}
}

var exportHeader = []string{"participant_index", "user_name", "round", "station", "workout_type", "score", "weight"}

// ExportSessionResults writes the scoreboard of a finished session as CSV to
// object storage and returns a presigned download link.
func (s *exportService) ExportSessionResults(ctx context.Context, sessionID string) (*SessionExport, error) {
	// 1. Gather
	view, err := s.sessions.GetSessionAssignments(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !view.Status.IsTerminal() {
		return nil, ErrSessionNotFinished
	}
	scores, err := s.scores.ListScoresBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	participants := make(map[string]ParticipantAssignment, len(view.Participants))
	for _, p := range view.Participants {
		participants[p.ParticipantID] = p
	}
	workoutNames := make(map[string]string, len(view.Stations))
	for _, st := range view.Stations {
		workoutNames[st.WorkoutTypeID] = st.WorkoutTypeName
	}

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := participants[scores[i].ParticipantID], participants[scores[j].ParticipantID]
		if a.ParticipantIndex != b.ParticipantIndex {
			return a.ParticipantIndex < b.ParticipantIndex
		}
		if scores[i].RoundNumber != scores[j].RoundNumber {
			return scores[i].RoundNumber < scores[j].RoundNumber
		}
		return scores[i].StationIndex < scores[j].StationIndex
	})

	// 2. Render
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, sc := range scores {
		p := participants[sc.ParticipantID]
		name, ok := workoutNames[sc.WorkoutTypeID]
		if !ok {
			name = sc.WorkoutTypeID
		}
		weight := ""
		if sc.Weight != nil {
			weight = sc.Weight.String()
		}
		row := []string{
			strconv.Itoa(p.ParticipantIndex),
			p.UserName,
			strconv.Itoa(sc.RoundNumber),
			strconv.Itoa(sc.StationIndex),
			name,
			strconv.Itoa(sc.Score),
			weight,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	// 3. Upload and sign
	key := fmt.Sprintf("exports/%s/%s.csv", sessionID, uuid.NewString())
	if err := s.files.PutObject(ctx, key, exportContentType, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		if derr := s.files.DeleteObject(ctx, key); derr != nil {
			s.log.Warn("failed to remove unsigned export", zap.String("key", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("sign export url: %w", err)
	}

	s.log.Info("session exported",
		zap.String(logger.FieldSessionID, sessionID),
		zap.String("key", key),
		zap.Int("rows", len(scores)))

	return &SessionExport{
		SessionID:   sessionID,
		ObjectKey:   key,
		DownloadURL: url,
		ExpiresAt:   s.now().UTC().Add(s.expiry),
		Rows:        len(scores),
	}, nil
}
