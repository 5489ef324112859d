package daemon

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

type LogExporter struct {
	AuditCol   *mongo.Collection
	RevokedCol *mongo.Collection
}

func (l *LogExporter) InitLogExporter() {
	go func() {
		for {
			res, _ := l.AuditCol.Find(context.Background(), bson.M{"exported": false})

			var logs []models.AuditLog
			_ = res.All(context.Background(), &logs)

			if len(logs) > 0 {
				_ = utils.ExportData(logs)
				updateIds := []primitive.ObjectID{}

				for i := 0; i < len(logs); i++ {
					updateIds = append(updateIds, logs[i].ID)
				}

				l.AuditCol.UpdateMany(context.Background(), bson.M{"_id": bson.M{"$in": updateIds}}, bson.M{"$set": bson.M{"exported": true}})
			}

			// Revoked refresh tokens past their own expiry are dead weight.
			if l.RevokedCol != nil {
				l.RevokedCol.DeleteMany(context.Background(), bson.M{"expires_at": bson.M{"$lt": time.Now()}})
			}

			time.Sleep(30 * time.Second)
		}
	}()
}
