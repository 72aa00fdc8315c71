package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yoockh/callassist/internal/models"
)

const UtteranceCollection = "utterance_log"

type UtteranceRepository interface {
	Insert(ctx context.Context, u *models.UtteranceLog) error
	MarkProcessing(ctx context.Context, callID string, seq int64) error
	MarkResult(ctx context.Context, callID string, seq int64, status string, analysis *models.AnalyticsUpdate, remoteErr string, processingMS int64) error
	ListByCall(ctx context.Context, callID string, limit int64) ([]models.UtteranceLog, error)
}

type utteranceRepo struct {
	col *mongo.Collection
}

func NewUtteranceRepo(db *mongo.Database) UtteranceRepository {
	return &utteranceRepo{col: db.Collection(UtteranceCollection)}
}

func (r *utteranceRepo) Insert(ctx context.Context, u *models.UtteranceLog) error {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *utteranceRepo) MarkProcessing(ctx context.Context, callID string, seq int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": callID, "sequence": seq},
		bson.M{"$set": bson.M{"analysis_status": models.StatusProcessing}},
	)
	return err
}

func (r *utteranceRepo) MarkResult(ctx context.Context, callID string, seq int64, status string, analysis *models.AnalyticsUpdate, remoteErr string, processingMS int64) error {
	set := bson.M{
		"analysis_status":    status,
		"processing_time_ms": processingMS,
	}
	if analysis != nil {
		set["analysis"] = analysis
	}
	if remoteErr != "" {
		set["remote_error"] = remoteErr
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": callID, "sequence": seq},
		bson.M{"$set": set},
	)
	return err
}

func (r *utteranceRepo) ListByCall(ctx context.Context, callID string, limit int64) ([]models.UtteranceLog, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"call_id": callID},
		options.Find().
			SetSort(bson.D{{Key: "sequence", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UtteranceLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
