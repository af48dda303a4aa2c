package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func pageBounds(page, perPage int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	return (page - 1) * perPage, perPage
}
