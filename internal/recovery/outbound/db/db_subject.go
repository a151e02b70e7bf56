package db

import (
	"context"

	"github.com/shandysiswandi/gorevive/internal/pkg/goerror"
	"github.com/shandysiswandi/gorevive/internal/recovery/entity"
)

const getSubjectByEmail = `
SELECT id, email, COALESCE(phone, ''), status
FROM users
WHERE email = $1 AND deleted_at IS NULL
`

func (s *DB) GetSubjectByEmail(ctx context.Context, email string) (_ *entity.Subject, err error) {
	ctx, span := s.startSpan(ctx, "GetSubjectByEmail")
	defer func() { s.endSpan(span, err) }()

	var subject entity.Subject
	err = s.conn.QueryRow(ctx, getSubjectByEmail, email).
		Scan(&subject.ID, &subject.Email, &subject.Phone, &subject.Status)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &subject, nil
}

const updateSubjectCredential = `
UPDATE users
SET password = $2, password_changed_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`

func (s *DB) UpdateSubjectCredential(ctx context.Context, subjectID int64, credentialHash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateSubjectCredential")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, updateSubjectCredential, subjectID, credentialHash)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
