package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore implementa Store sobre um banco MongoDB. O _id (ObjectID) é o
// identificador interno, exposto como string hexadecimal.
type MongoStore struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoStore conecta-se ao MongoDB, verifica a conexão e garante os índices únicos.
func NewMongoStore(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("falha ao pingar o MongoDB: %w", err)
	}
	logger.Info("conexão com MongoDB estabelecida", zap.String("database", database))

	s := NewMongoStoreFromDatabase(client.Database(database), logger)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromDatabase usa um *mongo.Database já conectado.
func NewMongoStoreFromDatabase(db *mongo.Database, logger *zap.Logger) *MongoStore {
	return &MongoStore{db: db, logger: logger}
}

// EnsureIndexes cria os índices únicos (username em users e vendors).
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	for coll, fields := range uniqueFields {
		for _, field := range fields {
			model := mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: options.Index().SetUnique(true),
			}
			if _, err := s.db.Collection(string(coll)).Indexes().CreateOne(ctx, model); err != nil {
				return fmt.Errorf("falha ao criar índice único %s.%s: %w", coll, field, err)
			}
		}
	}
	return nil
}

// InsertOne grava doc e devolve o ObjectID em hexadecimal.
func (s *MongoStore) InsertOne(ctx context.Context, coll Collection, doc any) (string, error) {
	c, err := s.collection(coll)
	if err != nil {
		return "", err
	}
	body, err := toDocument(doc)
	if err != nil {
		return "", err
	}
	bdoc, err := toBSON(body)
	if err != nil {
		return "", err
	}

	res, err := c.InsertOne(ctx, bdoc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("inserir em %s: %w", coll, ErrDuplicate)
		}
		return "", fmt.Errorf("falha ao inserir em %s: %w", coll, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("identificador inesperado em %s: %v", coll, res.InsertedID)
	}
	return oid.Hex(), nil
}

// FindOne decodifica em out o primeiro documento que casa com filter, em ordem de _id.
func (s *MongoStore) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	c, err := s.collection(coll)
	if err != nil {
		return err
	}
	f, err := mongoFilter(filter)
	if errors.Is(err, errNoMatch) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	raw, err := c.FindOne(ctx, f, opts).DecodeBytes()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("falha ao buscar em %s: %w", coll, err)
	}
	j, err := fromBSON(raw)
	if err != nil {
		return err
	}
	return decodeInto(j, out)
}

// FindMany decodifica em out todos os documentos que casam, em ordem de _id.
func (s *MongoStore) FindMany(ctx context.Context, coll Collection, filter Filter, out any) error {
	c, err := s.collection(coll)
	if err != nil {
		return err
	}
	f, err := mongoFilter(filter)
	if errors.Is(err, errNoMatch) {
		return decodeList(nil, out)
	}
	if err != nil {
		return err
	}

	cur, err := c.Find(ctx, f, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("falha ao listar %s: %w", coll, err)
	}
	defer cur.Close(ctx)

	var raws [][]byte
	for cur.Next(ctx) {
		j, err := fromBSON(cur.Current)
		if err != nil {
			return err
		}
		raws = append(raws, j)
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("falha ao iterar %s: %w", coll, err)
	}
	return decodeList(raws, out)
}

// UpdateOne aplica update com FindOneAndUpdate e devolve o documento já atualizado.
func (s *MongoStore) UpdateOne(ctx context.Context, coll Collection, filter Filter, update Update, out any) error {
	if update.empty() {
		return s.FindOne(ctx, coll, filter, out)
	}
	c, err := s.collection(coll)
	if err != nil {
		return err
	}
	f, err := mongoFilter(filter)
	if errors.Is(err, errNoMatch) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	u, err := mongoUpdate(update)
	if err != nil {
		return err
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	raw, err := c.FindOneAndUpdate(ctx, f, u, opts).DecodeBytes()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("atualizar %s: %w", coll, ErrDuplicate)
		}
		return fmt.Errorf("falha ao atualizar %s: %w", coll, err)
	}
	j, err := fromBSON(raw)
	if err != nil {
		return err
	}
	return decodeInto(j, out)
}

// DeleteOne remove o primeiro documento que casa.
func (s *MongoStore) DeleteOne(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	c, err := s.collection(coll)
	if err != nil {
		return 0, err
	}
	f, err := mongoFilter(filter)
	if errors.Is(err, errNoMatch) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteOne(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("falha ao remover de %s: %w", coll, err)
	}
	return res.DeletedCount, nil
}

// DeleteMany remove todos os documentos que casam.
func (s *MongoStore) DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	c, err := s.collection(coll)
	if err != nil {
		return 0, err
	}
	f, err := mongoFilter(filter)
	if errors.Is(err, errNoMatch) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteMany(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("falha ao remover de %s: %w", coll, err)
	}
	return res.DeletedCount, nil
}

// Close desconecta o cliente.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoStore) collection(coll Collection) (*mongo.Collection, error) {
	if !coll.valid() {
		return nil, fmt.Errorf("coleção desconhecida: %q", coll)
	}
	return s.db.Collection(string(coll)), nil
}

// toBSON converte qualquer valor serializável em JSON para bson.D, passando pelo
// Extended JSON relaxado. Inteiros viram int32/int64 e strings continuam strings.
func toBSON(v any) (bson.D, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("falha ao codificar documento: %w", err)
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &d); err != nil {
		return nil, fmt.Errorf("falha ao converter documento para BSON: %w", err)
	}
	return d, nil
}

// fromBSON devolve a representação JSON do documento, sem o _id.
func fromBSON(raw bson.Raw) ([]byte, error) {
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("falha ao decodificar BSON: %w", err)
	}
	kept := make(bson.D, 0, len(d))
	for _, e := range d {
		if e.Key != "_id" {
			kept = append(kept, e)
		}
	}
	j, err := bson.MarshalExtJSON(kept, false, false)
	if err != nil {
		return nil, fmt.Errorf("falha ao converter documento para JSON: %w", err)
	}
	return j, nil
}

func mongoFilter(filter Filter) (bson.D, error) {
	rest := make(map[string]any, len(filter))
	for field, v := range filter {
		if field != InternalIDKey {
			rest[field] = v
		}
	}
	d, err := toBSON(rest)
	if err != nil {
		return nil, err
	}

	if rawID, ok := filter[InternalIDKey]; ok {
		s, _ := rawID.(string)
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, errNoMatch
		}
		d = append(bson.D{{Key: "_id", Value: oid}}, d...)
	}
	return d, nil
}

func mongoUpdate(u Update) (bson.D, error) {
	var out bson.D
	add := func(op string, fields any, n int) error {
		if n == 0 {
			return nil
		}
		d, err := toBSON(fields)
		if err != nil {
			return err
		}
		out = append(out, bson.E{Key: op, Value: d})
		return nil
	}
	if err := add("$set", u.Set, len(u.Set)); err != nil {
		return nil, err
	}
	if len(u.Inc) > 0 {
		inc := make(bson.D, 0, len(u.Inc))
		for field, delta := range u.Inc {
			inc = append(inc, bson.E{Key: field, Value: delta})
		}
		out = append(out, bson.E{Key: "$inc", Value: inc})
	}
	if err := add("$addToSet", u.AddToSet, len(u.AddToSet)); err != nil {
		return nil, err
	}
	if err := add("$pull", u.Pull, len(u.Pull)); err != nil {
		return nil, err
	}
	return out, nil
}
