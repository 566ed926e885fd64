package gestureRepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ProjectGesture/internal/api/gesture"
	"ProjectGesture/internal/entity"
	contextPkg "ProjectGesture/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type GestureDB struct {
	ID               sql.NullString  `db:"id"`
	UserID           sql.NullString  `db:"user_id"`
	GestureType      sql.NullString  `db:"gesture_type"`
	RawData          sql.NullString  `db:"raw_data"`
	Features         sql.NullString  `db:"features"`
	Intention        sql.NullString  `db:"intention"`
	ConfidenceScore  sql.NullFloat64 `db:"confidence_score"`
	GeneratedText    sql.NullString  `db:"generated_text"`
	AudioURL         sql.NullString  `db:"audio_url"`
	ProcessingTimeMs sql.NullFloat64 `db:"processing_time_ms"`
	CreatedAt        time.Time       `db:"created_at"`
}

func (r *gestureRepository) CreateGesture(ctx context.Context, record entity.GestureRecord) error {
	requestID := contextPkg.GetRequestID(ctx)

	rawDataJSON, err := json.Marshal(record.RawData)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal raw gesture data")
		return err
	}

	featuresJSON, err := json.Marshal(record.Features)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal feature vector")
		return err
	}

	argsKV := map[string]interface{}{
		"id":                 record.ID,
		"user_id":            record.UserID,
		"gesture_type":       record.GestureType,
		"raw_data":           string(rawDataJSON),
		"features":           string(featuresJSON),
		"intention":          record.Intention,
		"confidence_score":   record.ConfidenceScore,
		"generated_text":     record.GeneratedText,
		"audio_url":          record.AudioURL,
		"processing_time_ms": record.ProcessingTimeMs,
		"created_at":         record.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateGesture, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateGesture named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating gesture")
		return err
	}

	return nil
}

func (r *gestureRepository) GetGestureByID(ctx context.Context, id string) (entity.GestureRecord, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var gestureDB GestureDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetGestureByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetGestureByID named query preparation err")
		return entity.GestureRecord{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&gestureDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("GetGestureByID no rows found")
			return entity.GestureRecord{}, gesture.ErrGestureNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetGestureByID execution err")
		return entity.GestureRecord{}, err
	}

	return r.makeGestureRecord(gestureDB), nil
}

func (r *gestureRepository) GetGesturesByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.GestureRecord, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var gestureList []GestureDB
	var total int

	countArgsKV := map[string]interface{}{
		"user_id": userID,
	}

	countQuery, countArgs, err := sqlx.Named(queryCountGesturesByUserID, countArgsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountGesturesByUserID named query preparation err")
		return nil, 0, err
	}

	countQuery = r.q.Rebind(countQuery)

	if err := r.q.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountGesturesByUserID execution err")
		return nil, 0, err
	}

	argsKV := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}

	query, args, err := sqlx.Named(queryGetGesturesByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetGesturesByUserID named query preparation err")
		return nil, 0, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &gestureList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetGesturesByUserID execution err")
		return nil, 0, err
	}

	var records []entity.GestureRecord
	for _, gestureDB := range gestureList {
		records = append(records, r.makeGestureRecord(gestureDB))
	}

	return records, total, nil
}

func (r *gestureRepository) DeleteGesture(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryDeleteGesture, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteGesture named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteGesture execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteGesture rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
		}).Warn("DeleteGesture no rows affected")
		return gesture.ErrGestureNotFound
	}

	return nil
}

func (r *gestureRepository) makeGestureRecord(gestureDB GestureDB) entity.GestureRecord {
	var rawData map[string]interface{}
	if gestureDB.RawData.Valid && gestureDB.RawData.String != "" {
		json.Unmarshal([]byte(gestureDB.RawData.String), &rawData)
	}

	var features []float64
	if gestureDB.Features.Valid && gestureDB.Features.String != "" {
		json.Unmarshal([]byte(gestureDB.Features.String), &features)
	}

	return entity.GestureRecord{
		ID:               gestureDB.ID.String,
		UserID:           gestureDB.UserID.String,
		GestureType:      gestureDB.GestureType.String,
		RawData:          rawData,
		Features:         features,
		Intention:        gestureDB.Intention.String,
		ConfidenceScore:  gestureDB.ConfidenceScore.Float64,
		GeneratedText:    gestureDB.GeneratedText.String,
		AudioURL:         gestureDB.AudioURL.String,
		ProcessingTimeMs: gestureDB.ProcessingTimeMs.Float64,
		CreatedAt:        gestureDB.CreatedAt,
	}
}
