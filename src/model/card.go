package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/cardfolio/backend/src/models"
)

var ErrCardNotFound = errors.New("credit card not found")

// GetCardForUser loads a card only if it belongs to the given user.
// A card owned by someone else is indistinguishable from a missing one.
func GetCardForUser(db *sql.DB, cardID, userID int64) (*models.CreditCard, error) {
	var card models.CreditCard
	var lastFour sql.NullString
	err := db.QueryRow(
		`SELECT id, user_id, name, last_four_digits FROM credit_cards WHERE id = ? AND user_id = ?`,
		cardID, userID,
	).Scan(&card.ID, &card.UserID, &card.Name, &lastFour)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("error querying credit card %d: %w", cardID, err)
	}
	card.LastFourDigits = lastFour.String
	return &card, nil
}

// CreateCard inserts a card row. Used by seeding and tests; card CRUD
// proper is outside this service.
func CreateCard(db *sql.DB, card *models.CreditCard) error {
	res, err := db.Exec(
		`INSERT INTO credit_cards (user_id, name, last_four_digits) VALUES (?, ?, ?)`,
		card.UserID, card.Name, card.LastFourDigits,
	)
	if err != nil {
		return fmt.Errorf("error inserting credit card: %w", err)
	}
	card.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading credit card id: %w", err)
	}
	return nil
}
