package postgres

import (
	"chatline-server/internal/domain"
	"database/sql"

	"github.com/google/uuid"
)

// GroupRepository handles database operations for groups and membership.
type GroupRepository struct {
	DB *sql.DB
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{DB: db}
}

// Create inserts a new group and enrolls the owner as its first member.
func (r *GroupRepository) Create(group *domain.Group) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO groups (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(query, group.ID, group.Name, group.OwnerID, group.CreatedAt); err != nil {
		return err
	}
	memberQuery := `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`
	if _, err := tx.Exec(memberQuery, group.ID, group.OwnerID); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByID retrieves a group by its ID.
func (r *GroupRepository) FindByID(id uuid.UUID) (*domain.Group, error) {
	group := &domain.Group{}
	query := `SELECT id, name, owner_id, created_at FROM groups WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return group, nil
}

// AddMember adds a user to a group. Adding an existing member is a no-op.
func (r *GroupRepository) AddMember(groupID, userID uuid.UUID) error {
	query := `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.DB.Exec(query, groupID, userID)
	return err
}

// RemoveMember removes a user from a group.
func (r *GroupRepository) RemoveMember(groupID, userID uuid.UUID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	_, err := r.DB.Exec(query, groupID, userID)
	return err
}

// MemberIDs retrieves the IDs of every member of a group.
func (r *GroupRepository) MemberIDs(groupID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM group_members WHERE group_id = $1`
	rows, err := r.DB.Query(query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GroupIDsFor retrieves the IDs of every group the user belongs to.
func (r *GroupRepository) GroupIDsFor(userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT group_id FROM group_members WHERE user_id = $1`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsMember reports whether a user belongs to a group.
func (r *GroupRepository) IsMember(groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	if err := r.DB.QueryRow(query, groupID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
