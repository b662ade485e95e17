package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/homeboardhq/homeboard/internal/model"
)

type FamilyMemberStore struct {
	db *sql.DB
}

func NewFamilyMemberStore(db *sql.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	var userID sql.NullString

	err := scanner.Scan(&m.ID, &m.FamilyID, &userID, &m.Name, &m.Role, &m.AvatarColor, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		m.UserID = &userID.String
	}
	return &m, nil
}

const memberCols = `id, family_id, user_id, name, role, avatar_color, is_active, created_at, updated_at`

func (s *FamilyMemberStore) Create(familyID string, userID *string, name, role, avatarColor string) (*model.FamilyMember, error) {
	var uID sql.NullString
	if userID != nil {
		uID = sql.NullString{String: *userID, Valid: true}
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO family_members (id, family_id, user_id, name, role, avatar_color) VALUES (?, ?, ?, ?, ?, ?)`,
		id, familyID, uID, name, role, avatarColor,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *FamilyMemberStore) List(familyID string) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY created_at ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *FamilyMemberStore) GetByID(familyID, id string) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE id = ? AND family_id = ?`, id, familyID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) GetByUserID(familyID, userID string) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE user_id = ? AND family_id = ?`, userID, familyID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member by user: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) Update(familyID, id, name, avatarColor string, isActive bool) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET name = ?, avatar_color = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		name, avatarColor, isActive, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *FamilyMemberStore) SetRole(familyID, id, role string) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		role, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("set member role: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *FamilyMemberStore) Delete(familyID, id string) error {
	_, err := s.db.Exec(`DELETE FROM family_members WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}
