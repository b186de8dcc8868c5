package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"voting-game/internal/game"
)

type job struct {
	record game.Record
	event  *Event
}

// Writer mirrors committed room state and the event history to Postgres.
// Record and Publish only enqueue; one goroutine running Run applies jobs in
// the order they were enqueued. A full queue drops the job.
type Writer struct {
	conn   *gorm.DB
	jobs   chan job
	onDrop func()
	now    func() time.Time
}

func NewWriter(conn *gorm.DB, buffer int, onDrop func()) *Writer {
	if buffer <= 0 {
		buffer = 256
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	return &Writer{
		conn:   conn,
		jobs:   make(chan job, buffer),
		onDrop: onDrop,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (w *Writer) Record(rec game.Record) {
	w.enqueue(job{record: rec}, rec.RoomCode())
}

// Publish stores an event in the history table. It satisfies
// game.Publisher so it can sit next to the websocket hub.
func (w *Writer) Publish(roomCode, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	w.enqueue(job{event: &Event{
		RoomCode:  roomCode,
		Type:      event,
		Payload:   datatypes.JSON(data),
		CreatedAt: w.now(),
	}}, roomCode)
	return nil
}

func (w *Writer) enqueue(j job, roomCode string) {
	select {
	case w.jobs <- j:
	default:
		w.onDrop()
		log.Warn().Str("module", "db.writer").Str("room_code", roomCode).Msg("persistence queue full, dropping write")
	}
}

// Run applies queued jobs until ctx is cancelled, then drains what is left.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case j := <-w.jobs:
			w.apply(ctx, j)
		case <-ctx.Done():
			w.drain()
			return nil
		}
	}
}

func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case j := <-w.jobs:
			w.apply(ctx, j)
		default:
			return
		}
	}
}

func (w *Writer) apply(ctx context.Context, j job) {
	var err error
	code := ""
	if j.event != nil {
		code = j.event.RoomCode
		err = w.conn.WithContext(ctx).Create(j.event).Error
	} else {
		code = j.record.RoomCode()
		err = w.applyRecord(ctx, j.record)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "db.writer").Str("room_code", code).Msg("persist failed")
	}
}

func (w *Writer) applyRecord(ctx context.Context, rec game.Record) error {
	conn := w.conn.WithContext(ctx)
	switch r := rec.(type) {
	case game.RoomRecord:
		return upsertRoom(conn, r, w.now())
	case game.MemberRecord:
		return upsertParticipant(conn, r)
	case game.RoundRecord:
		return upsertRound(conn, r, w.now())
	case game.AnswerRecord:
		return insertAnswer(conn, r)
	case game.VoteRecord:
		return insertVote(conn, r, w.now())
	default:
		return fmt.Errorf("unsupported record %T", rec)
	}
}

func upsertRoom(conn *gorm.DB, r game.RoomRecord, now time.Time) error {
	prompts := r.Prompts
	if prompts == nil {
		prompts = []string{}
	}
	encoded, err := json.Marshal(prompts)
	if err != nil {
		return err
	}
	row := Room{
		Code:         r.Code,
		HostID:       r.HostID,
		MaxPlayers:   r.Capacity,
		TotalRounds:  r.TotalRounds,
		Status:       string(r.Status),
		CurrentRound: r.CurrentRound,
		Prompts:      datatypes.JSON(encoded),
		CreatedAt:    r.At,
		UpdatedAt:    now,
	}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "current_round", "prompts", "updated_at"}),
	}).Create(&row).Error
}

func upsertParticipant(conn *gorm.DB, r game.MemberRecord) error {
	row := Participant{
		RoomCode:    r.Code,
		UserID:      r.UserID,
		DisplayName: r.DisplayName,
		Present:     r.Present,
		JoinedAt:    r.At,
		UpdatedAt:   r.At,
	}
	if !r.Present {
		left := r.At
		row.LeftAt = &left
	}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_code"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "present", "left_at", "updated_at"}),
	}).Create(&row).Error
}

func upsertRound(conn *gorm.DB, r game.RoundRecord, now time.Time) error {
	row := Round{
		ID:        r.Round.ID,
		RoomCode:  r.Code,
		Number:    r.Round.Number,
		Question:  r.Round.Prompt,
		Status:    string(r.Round.Phase),
		StartedAt: r.Round.StartedAt,
		UpdatedAt: now,
	}
	if !r.Round.Deadline.IsZero() {
		deadline := r.Round.Deadline
		row.EndsAt = &deadline
	}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "ends_at", "updated_at"}),
	}).Create(&row).Error
}

func insertAnswer(conn *gorm.DB, r game.AnswerRecord) error {
	row := Answer{
		ID:        r.Answer.ID,
		RoundID:   r.Answer.RoundID,
		UserID:    r.Answer.AuthorID,
		Content:   r.Answer.Content,
		CreatedAt: r.Answer.CreatedAt,
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// insertVote stores the vote and credits its author in one transaction. A
// replayed vote is ignored so the score is never credited twice.
func insertVote(conn *gorm.DB, r game.VoteRecord, now time.Time) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		row := Vote{
			ID:        r.Vote.ID,
			RoundID:   r.Vote.RoundID,
			VoterID:   r.Vote.VoterID,
			AnswerID:  r.Vote.AnswerID,
			CreatedAt: r.Vote.CreatedAt,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		score := Score{
			RoomCode:    r.Code,
			UserID:      r.AuthorID,
			RoundNumber: r.RoundNumber,
			Points:      1,
			UpdatedAt:   now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_code"}, {Name: "user_id"}, {Name: "round_number"}},
			DoUpdates: clause.Assignments(map[string]any{
				"points":     gorm.Expr("scores.points + ?", 1),
				"updated_at": now,
			}),
		}).Create(&score).Error
	})
}
