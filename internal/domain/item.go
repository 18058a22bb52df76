package domain

import "time"

// Item es una linea de cobro que pertenece a un unico sujeto.
type Item struct {
	ID           int64     `json:"item_id"`
	OwnerSubject string    `json:"-"`
	Name         string    `json:"item"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
