package mongo

import (
	"chatline-server/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollection = "messages"

// MessageRepository handles database operations for chat messages.
type MessageRepository struct {
	DB *mongo.Database
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) collection() *mongo.Collection {
	return r.DB.Collection(messageCollection)
}

// Save inserts a new chat message and fills in its generated ID.
func (r *MessageRepository) Save(ctx context.Context, message *domain.ChatMessage) error {
	now := time.Now()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	message.UpdatedAt = now

	res, err := r.collection().InsertOne(ctx, message)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		message.ID = oid
	}
	return nil
}

// FindByID retrieves a message by its hex ID. A missing message yields
// (nil, nil), matching the repository convention for lookups.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	message := &domain.ChatMessage{}
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return message, nil
}

// MarkDelivered flips delivered to true for the given message IDs. The
// filter only matches undelivered messages, so repeated calls are no-ops.
func (r *MessageRepository) MarkDelivered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	filter := bson.M{"_id": bson.M{"$in": oids}, "delivered": false}
	update := bson.M{"$set": bson.M{"delivered": true, "updated_at": time.Now()}}
	_, err := r.collection().UpdateMany(ctx, filter, update)
	return err
}

// MarkSeen flips seen to true for every message in a conversation that was
// not sent by the given user.
func (r *MessageRepository) MarkSeen(ctx context.Context, conversationID, userID string) error {
	filter := bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": userID},
		"seen":            false,
	}
	update := bson.M{"$set": bson.M{"seen": true, "updated_at": time.Now()}}
	_, err := r.collection().UpdateMany(ctx, filter, update)
	return err
}

// SoftDelete adds a user to a message's deleted_by set and returns the
// updated document. The $addToSet keeps the operation idempotent.
func (r *MessageRepository) SoftDelete(ctx context.Context, id, userID string) (*domain.ChatMessage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	update := bson.M{
		"$addToSet": bson.M{"deleted_by": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	message := &domain.ChatMessage{}
	err = r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return message, nil
}

// HardDelete removes a message record entirely.
func (r *MessageRepository) HardDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PendingFor retrieves the undelivered messages addressed to a user, oldest
// first, excluding those the user already deleted. Addressing covers both
// direct messages to the user and messages in the given groups; the user's
// own group sends are not pending for them.
func (r *MessageRepository) PendingFor(ctx context.Context, userID string, groupIDs []string) ([]*domain.ChatMessage, error) {
	filter := bson.M{
		"delivered":  false,
		"deleted_by": bson.M{"$ne": userID},
		"$or":        addressedTo(userID, groupIDs),
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

// RecentDeletions retrieves messages touching a user whose deleted_by set was
// mutated within the window, oldest mutation first. Hard-deleted records are
// gone and cannot be replayed from here; their broadcast at delete time is
// the only signal.
func (r *MessageRepository) RecentDeletions(ctx context.Context, userID string, groupIDs []string, since time.Time) ([]*domain.ChatMessage, error) {
	touches := []bson.M{{"sender_id": userID}, {"recipient_id": userID}}
	if len(groupIDs) > 0 {
		touches = append(touches, bson.M{"group_id": bson.M{"$in": groupIDs}})
	}
	filter := bson.M{
		"updated_at":   bson.M{"$gte": since},
		"deleted_by.0": bson.M{"$exists": true},
		"$or":          touches,
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

// Conversation retrieves the last `limit` messages of a conversation in
// chronological order, excluding those the requester deleted.
func (r *MessageRepository) Conversation(ctx context.Context, conversationID, requesterID string, limit int64) ([]*domain.ChatMessage, error) {
	filter := bson.M{
		"conversation_id": conversationID,
		"deleted_by":      bson.M{"$ne": requesterID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	messages, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	// Newest-first from the query; reverse to chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// addressedTo builds the $or branches matching messages addressed to a user:
// direct messages to them, plus group messages in their groups sent by
// someone else.
func addressedTo(userID string, groupIDs []string) []bson.M {
	branches := []bson.M{{"recipient_id": userID}}
	if len(groupIDs) > 0 {
		branches = append(branches, bson.M{
			"group_id":  bson.M{"$in": groupIDs},
			"sender_id": bson.M{"$ne": userID},
		})
	}
	return branches
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.ChatMessage, error) {
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*domain.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
