package repository

import "github.com/jackc/pgx/v5/pgtype"

func categoryID(id int64) pgtype.Int8 {
	return pgtype.Int8{Int64: id, Valid: true}
}
