package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"carsapp-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoUsersCollection = "users"
	mongoCarsCollection  = "cars"
)

// MongoDBStore implements Store using MongoDB, the document layout the
// original backend used (users and cars collections, ObjectID references).
type MongoDBStore struct {
	client *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
	cars   *mongo.Collection
}

// NewMongoDBStore connects to MongoDB and prepares the collections.
func NewMongoDBStore(uri, database string) (*MongoDBStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetConnectTimeout(30 * time.Second).
		SetSocketTimeout(30 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &MongoDBStore{
		client: client,
		db:     db,
		users:  db.Collection(mongoUsersCollection),
		cars:   db.Collection(mongoCarsCollection),
	}

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.cars, mongo.IndexModel{Keys: bson.D{{Key: "user", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			log.Printf("[MongoDB] Warning: failed to create index on %s: %v", idx.coll.Name(), err)
		}
	}

	log.Printf("[MongoDB] Connected to %s", database)
	return s, nil
}

type userDocument struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	FirstName    string               `bson:"firstName"`
	LastName     string               `bson:"lastName"`
	Email        string               `bson:"email"`
	PhoneNumber  int64                `bson:"phoneNumber,omitempty"`
	Username     string               `bson:"username"`
	Password     string               `bson:"password"`
	SellingCars  []primitive.ObjectID `bson:"sellingCars"`
	FavoriteCars []primitive.ObjectID `bson:"favoriteCars"`
}

type carDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Make        string             `bson:"make"`
	Model       string             `bson:"model"`
	Year        int                `bson:"year"`
	Price       float64            `bson:"price"`
	Pictures    []string           `bson:"pictures"`
	Description string             `bson:"description"`
	User        primitive.ObjectID `bson:"user"`
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PhoneNumber:  d.PhoneNumber,
		Username:     d.Username,
		Password:     d.Password,
		SellingCars:  hexIDs(d.SellingCars),
		FavoriteCars: hexIDs(d.FavoriteCars),
	}
}

func (d *carDocument) toModel() *model.Car {
	pictures := d.Pictures
	if pictures == nil {
		pictures = []string{}
	}
	return &model.Car{
		ID:          d.ID.Hex(),
		Make:        d.Make,
		Model:       d.Model,
		Year:        d.Year,
		Price:       d.Price,
		Pictures:    pictures,
		Description: d.Description,
		User:        d.User.Hex(),
	}
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

// objectIDs converts hex ids, skipping malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

// Users returns the user repository.
func (s *MongoDBStore) Users() UserRepository { return &mongoUserRepository{coll: s.users} }

// Cars returns the car repository.
func (s *MongoDBStore) Cars() CarRepository { return &mongoCarRepository{coll: s.cars} }

// Ping verifies the connection.
func (s *MongoDBStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// GetStats returns statistics about the collections.
func (s *MongoDBStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["status"] = "connected"

	users, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats["total_users"] = users

	cars, err := s.cars.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats["total_cars"] = cars

	result := s.db.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}})
	var dbStats bson.M
	if err := result.Decode(&dbStats); err == nil {
		switch size := dbStats["dataSize"].(type) {
		case int64:
			stats["db_size_bytes"] = size
		case int32:
			stats["db_size_bytes"] = int64(size)
		case float64:
			stats["db_size_bytes"] = int64(size)
		}
	}

	return stats, nil
}

// Close closes the MongoDB connection.
func (s *MongoDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	doc := userDocument{
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		PhoneNumber:  user.PhoneNumber,
		Username:     user.Username,
		Password:     user.Password,
		SellingCars:  []primitive.ObjectID{},
		FavoriteCars: []primitive.ObjectID{},
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	user.ID = oid.Hex()
	user.SellingCars = []string{}
	user.FavoriteCars = []string{}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *mongoUserRepository) List(ctx context.Context) ([]*model.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M) ([]*model.User, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*model.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

// updateSet runs an update against one user and returns whether it
// modified the document. ErrNotFound is returned if the user is missing.
func (r *mongoUserRepository) updateSet(ctx context.Context, userID, carID string, op, field string) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, ErrNotFound
	}
	cid, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		// A malformed car id cannot be in the set; make sure the user exists.
		if _, ferr := r.findOne(ctx, bson.M{"_id": uid}); ferr != nil {
			return false, ferr
		}
		return false, nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{op: bson.M{field: cid}})
	if err != nil {
		return false, fmt.Errorf("failed to update user %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoUserRepository) AddSellingCar(ctx context.Context, userID, carID string) error {
	_, err := r.updateSet(ctx, userID, carID, "$addToSet", "sellingCars")
	return err
}

func (r *mongoUserRepository) RemoveSellingCar(ctx context.Context, userID, carID string) error {
	_, err := r.updateSet(ctx, userID, carID, "$pull", "sellingCars")
	return err
}

func (r *mongoUserRepository) AddFavorite(ctx context.Context, userID, carID string) (bool, error) {
	return r.updateSet(ctx, userID, carID, "$addToSet", "favoriteCars")
}

func (r *mongoUserRepository) RemoveFavorite(ctx context.Context, userID, carID string) (bool, error) {
	return r.updateSet(ctx, userID, carID, "$pull", "favoriteCars")
}

type mongoCarRepository struct {
	coll *mongo.Collection
}

func (r *mongoCarRepository) Create(ctx context.Context, car *model.Car) error {
	owner, err := primitive.ObjectIDFromHex(car.User)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", car.User, err)
	}

	doc := carDocument{
		Make:        car.Make,
		Model:       car.Model,
		Year:        car.Year,
		Price:       car.Price,
		Pictures:    car.Pictures,
		Description: car.Description,
		User:        owner,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert car: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	car.ID = oid.Hex()
	return nil
}

func (r *mongoCarRepository) FindByID(ctx context.Context, id string) (*model.Car, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc carDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoCarRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Car, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.Car{}, nil
	}
	cars, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return orderByIDs(hexIDs(oids), cars), nil
}

func (r *mongoCarRepository) List(ctx context.Context) ([]*model.Car, error) {
	return r.find(ctx, bson.M{})
}

// Search treats query literally; it is quoted before being used as a regex.
func (r *mongoCarRepository) Search(ctx context.Context, query string) ([]*model.Car, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{"$or": []bson.M{
		{"make": pattern},
		{"model": pattern},
	}})
}

func (r *mongoCarRepository) find(ctx context.Context, filter bson.M) ([]*model.Car, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find cars: %w", err)
	}
	defer cur.Close(ctx)

	var docs []carDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}

	cars := make([]*model.Car, 0, len(docs))
	for i := range docs {
		cars = append(cars, docs[i].toModel())
	}
	return cars, nil
}

func (r *mongoCarRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure MongoDBStore implements Store
var _ Store = (*MongoDBStore)(nil)
