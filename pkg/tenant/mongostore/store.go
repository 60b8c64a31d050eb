// Package mongostore is a MongoDB backed tenant.Store. Each tenant is one
// document; a unique multikey index on hosts keeps a host from being
// registered to two tenants.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongox "github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// DefaultCollection is the collection used when none is given.
const DefaultCollection = "tenants"

const hostsIndex = "hosts_unique"

var (
	// ErrHostTaken is returned when a host is already registered to a tenant.
	ErrHostTaken = errors.New("host is already registered to a tenant")

	// ErrDatabaseNil is returned when the store is created without a database.
	ErrDatabaseNil = errors.New("mongostore: database cannot be nil")
)

type document struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Hosts     []string  `bson:"hosts"`
	PlanID    string    `bson:"plan_id"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store implements tenant.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

var _ tenant.Store = (*Store)(nil)

// New returns a store over db.collection. An empty name selects DefaultCollection.
func New(db *mongo.Database, collection string) (*Store, error) {
	if db == nil {
		return nil, ErrDatabaseNil
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{coll: db.Collection(collection)}, nil
}

// EnsureIndexes creates the unique hosts index. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hosts", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(hostsIndex),
	})
	if err != nil {
		return fmt.Errorf("create hosts index: %w", err)
	}
	return nil
}

// FindByHost returns every tenant whose hosts contain host.
func (s *Store) FindByHost(ctx context.Context, host string) ([]*tenant.Tenant, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"hosts": host})
	if err != nil {
		return nil, fmt.Errorf("find tenants by host: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tenants: %w", err)
	}

	result := make([]*tenant.Tenant, 0, len(docs))
	for _, doc := range docs {
		t, err := doc.tenant()
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

// Get loads a tenant by id.
func (s *Store) Get(ctx context.Context, id tenant.ID) (*tenant.Tenant, error) {
	var doc document
	if err := s.coll.FindOne(ctx, bson.M{"_id": id.Value()}).Decode(&doc); err != nil {
		if mongox.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return doc.tenant()
}

// Create inserts a tenant. Hosts are normalized before they are stored.
func (s *Store) Create(ctx context.Context, t *tenant.Tenant) error {
	if t == nil || t.ID.IsZero() {
		return fmt.Errorf("%w: tenant id is empty", tenant.ErrInvalidIdentifier)
	}

	hosts, err := normalizeHosts(t.Hosts)
	if err != nil {
		return err
	}

	doc := document{
		ID:        t.ID.Value(),
		Name:      t.Name,
		Hosts:     hosts,
		PlanID:    t.PlanID,
		Active:    t.Active,
		CreatedAt: t.CreatedAt.UTC(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return classifyWriteError(err, t.ID)
	}
	return nil
}

// AddHosts registers additional hosts for a tenant.
func (s *Store) AddHosts(ctx context.Context, id tenant.ID, hosts ...string) error {
	normalized, err := normalizeHosts(hosts)
	if err != nil {
		return err
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id.Value()},
		bson.M{"$addToSet": bson.M{"hosts": bson.M{"$each": normalized}}},
	)
	if err != nil {
		return classifyWriteError(err, id)
	}
	if res.MatchedCount == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// RemoveHost unregisters a host from whichever tenant holds it.
func (s *Store) RemoveHost(ctx context.Context, host string) error {
	normalized, err := tenant.NormalizeHost(host)
	if err != nil {
		return err
	}
	if _, err := s.coll.UpdateMany(ctx,
		bson.M{"hosts": normalized},
		bson.M{"$pull": bson.M{"hosts": normalized}},
	); err != nil {
		return fmt.Errorf("remove host: %w", err)
	}
	return nil
}

// SetActive toggles whether the tenant may be served.
func (s *Store) SetActive(ctx context.Context, id tenant.ID, active bool) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id.Value()}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if res.MatchedCount == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// Delete removes a tenant.
func (s *Store) Delete(ctx context.Context, id tenant.ID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.Value()}); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}

func (d document) tenant() (*tenant.Tenant, error) {
	id, err := tenant.ParseID(d.ID)
	if err != nil {
		return nil, err
	}
	return &tenant.Tenant{
		ID:        id,
		Name:      d.Name,
		Hosts:     d.Hosts,
		PlanID:    d.PlanID,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
	}, nil
}

// classifyWriteError tells a taken host from a taken id; both surface as
// duplicate key errors.
func classifyWriteError(err error, id tenant.ID) error {
	if !mongox.IsDuplicateKeyError(err) {
		return fmt.Errorf("write tenant: %w", err)
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 && strings.Contains(e.Message, hostsIndex) {
				return fmt.Errorf("%w: %s", ErrHostTaken, e.Message)
			}
		}
	}
	return fmt.Errorf("%w: %s", tenant.ErrDuplicateTenant, id)
}

func normalizeHosts(hosts []string) ([]string, error) {
	result := make([]string, 0, len(hosts))
	for _, h := range hosts {
		n, err := tenant.NormalizeHost(h)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}
