package db

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	Username     string    `gorm:"size:100;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type Room struct {
	Code         string         `gorm:"primaryKey;size:12"`
	HostID       string         `gorm:"size:36;index;not null"`
	MaxPlayers   int            `gorm:"not null"`
	TotalRounds  int            `gorm:"not null"`
	Status       string         `gorm:"size:16;not null"`
	CurrentRound int            `gorm:"not null;default:0"`
	Prompts      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

type Participant struct {
	RoomCode    string     `gorm:"primaryKey;size:12"`
	UserID      string     `gorm:"primaryKey;size:36"`
	DisplayName string     `gorm:"size:100;not null"`
	Present     bool       `gorm:"not null"`
	JoinedAt    time.Time  `gorm:"not null"`
	LeftAt      *time.Time
	UpdatedAt   time.Time `gorm:"not null"`
}

type Round struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoomCode  string    `gorm:"size:12;not null;uniqueIndex:idx_rounds_room_number"`
	Number    int       `gorm:"not null;uniqueIndex:idx_rounds_room_number"`
	Question  string    `gorm:"size:500;not null"`
	Status    string    `gorm:"size:16;not null"`
	StartedAt time.Time `gorm:"not null"`
	EndsAt    *time.Time
	UpdatedAt time.Time `gorm:"not null"`
}

type Answer struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoundID   string    `gorm:"size:36;not null;uniqueIndex:idx_answers_round_user"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_answers_round_user"`
	Content   string    `gorm:"size:500;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Vote struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoundID   string    `gorm:"size:36;not null;uniqueIndex:idx_votes_round_voter"`
	VoterID   string    `gorm:"size:36;not null;uniqueIndex:idx_votes_round_voter"`
	AnswerID  string    `gorm:"size:36;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// Score holds the points one user earned in one round of a room.
type Score struct {
	RoomCode    string    `gorm:"primaryKey;size:12"`
	UserID      string    `gorm:"primaryKey;size:36"`
	RoundNumber int       `gorm:"primaryKey"`
	Points      int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomCode  string         `gorm:"size:12;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
