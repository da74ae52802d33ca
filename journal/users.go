package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertUser registers a user or refreshes their profile fields. A
// re-registration keeps the existing subscription flag.
func (s *SQLite) UpsertUser(u User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (telegram_id, username, first_name, subscribed, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name`,
		u.TelegramID, u.Username, u.FirstName, boolToInt(u.Subscribed), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *SQLite) GetUser(telegramID int64) (User, error) {
	var (
		u          User
		subscribed int
	)
	err := s.db.QueryRow(`
		SELECT telegram_id, username, first_name, subscribed, created_at
		FROM users WHERE telegram_id = ?`, telegramID).
		Scan(&u.TelegramID, &u.Username, &u.FirstName, &subscribed, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}
	if err != nil {
		return User{}, err
	}
	u.Subscribed = subscribed != 0
	return u, nil
}

func (s *SQLite) SetSubscribed(telegramID int64, subscribed bool) error {
	_, err := s.db.Exec(`UPDATE users SET subscribed = ? WHERE telegram_id = ?`,
		boolToInt(subscribed), telegramID)
	return err
}

// ListSubscribers returns the chat ids the alert dispatcher fans out to.
func (s *SQLite) ListSubscribers() ([]int64, error) {
	rows, err := s.db.Query(`SELECT telegram_id FROM users WHERE subscribed = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddAccount creates an account for the user. Marking it default
// clears the flag on the others.
func (s *SQLite) AddAccount(a Account) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if a.Default {
		if _, err := tx.Exec(`UPDATE accounts SET is_default = 0 WHERE user_id = ?`, a.UserID); err != nil {
			return err
		}
	}
	_, err = tx.Exec(`
		INSERT INTO accounts (user_id, account_id, name, is_default, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.AccountID, a.Name, boolToInt(a.Default), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("add account: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) ListAccounts(userID int64) ([]Account, error) {
	rows, err := s.db.Query(`
		SELECT user_id, account_id, name, is_default, created_at
		FROM accounts WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var (
			a   Account
			def int
		)
		if err := rows.Scan(&a.UserID, &a.AccountID, &a.Name, &def, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Default = def != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// DefaultAccount returns the user's default account, falling back to
// the oldest account when none is flagged.
func (s *SQLite) DefaultAccount(userID int64) (Account, error) {
	accounts, err := s.ListAccounts(userID)
	if err != nil {
		return Account{}, err
	}
	if len(accounts) == 0 {
		return Account{}, fmt.Errorf("user %d has no accounts", userID)
	}
	for _, a := range accounts {
		if a.Default {
			return a, nil
		}
	}
	return accounts[0], nil
}

func (s *SQLite) RenameAccount(userID int64, accountID, name string) error {
	res, err := s.db.Exec(`UPDATE accounts SET name = ? WHERE user_id = ? AND account_id = ?`,
		name, userID, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) AddPair(userID int64, pair string) error {
	if pair == "" {
		return fmt.Errorf("pair is required")
	}
	_, err := s.db.Exec(`
		INSERT INTO pairs (user_id, pair, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, pair) DO NOTHING`,
		userID, pair, time.Now())
	return err
}

func (s *SQLite) RemovePair(userID int64, pair string) error {
	res, err := s.db.Exec(`DELETE FROM pairs WHERE user_id = ? AND pair = ?`, userID, pair)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("pair %q: %w", pair, ErrNotFound)
	}
	return nil
}

func (s *SQLite) ListPairs(userID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT pair FROM pairs WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
