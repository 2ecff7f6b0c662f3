package hike

import (
	"context"

	"github.com/MatFrancois/opotopo/internal/db"
)

// PostgresLoader reads the catalogue from the hikes table, in position order.
type PostgresLoader struct {
	db db.Querier
}

func NewPostgresLoader(db db.Querier) *PostgresLoader {
	return &PostgresLoader{db: db}
}

func (l *PostgresLoader) Load(ctx context.Context) ([]Hike, error) {
	rows, err := l.db.Query(ctx, `
		SELECT rid, alt, niveaux, randonnee, temps_minute, deniv, kms, regions, vallees,
		       piolet, crampons, n_com, note, note_sd, COALESCE(url, '')
		FROM hikes
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hikes []Hike
	for rows.Next() {
		var (
			h                          Hike
			id                         string
			alt, minutes, deniv, kms   float64
			iceAxe, crampons, comments int
		)
		if err := rows.Scan(&id, &alt, &h.Level, &h.Name, &minutes, &deniv, &kms, &h.Region, &h.Valley,
			&iceAxe, &crampons, &comments, &h.Rating, &h.RatingSD, &h.URL); err != nil {
			return nil, err
		}
		h.ID = Value(id)
		h.Altitude = FloatValue(alt)
		h.Minutes = FloatValue(minutes)
		h.Elevation = FloatValue(deniv)
		h.Distance = FloatValue(kms)
		h.zeroDistance = kms == 0
		h.zeroElevation = deniv == 0
		h.IceAxe = FloatValue(float64(iceAxe))
		h.Crampons = FloatValue(float64(crampons))
		h.Comments = FloatValue(float64(comments))
		hikes = append(hikes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hikes, nil
}
