package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by pgxpool.Pool, pgx.Conn and pgx.Tx, so the same
// queries can run inside and outside of transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New returns a Queries instance bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// --- Users ---

type User struct {
	UserHandle string
	Name       pgtype.Text
	Email      string
	APIKeyHash string
}

type UpsertUserParams struct {
	UserHandle string
	Name       pgtype.Text
	Email      string
	APIKeyHash string
}

const upsertUser = `
INSERT INTO users (user_handle, name, email, api_key_hash)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_handle) DO UPDATE
  SET name = EXCLUDED.name,
      email = EXCLUDED.email,
      updated_at = now()
RETURNING user_handle, name, email, api_key_hash
`

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, upsertUser, arg.UserHandle, arg.Name, arg.Email, arg.APIKeyHash)
	var u User
	err := row.Scan(&u.UserHandle, &u.Name, &u.Email, &u.APIKeyHash)
	return u, err
}

const retrieveUser = `
SELECT user_handle, name, email, api_key_hash
FROM users
WHERE user_handle = $1
`

func (q *Queries) RetrieveUser(ctx context.Context, userHandle string) (User, error) {
	row := q.db.QueryRow(ctx, retrieveUser, userHandle)
	var u User
	err := row.Scan(&u.UserHandle, &u.Name, &u.Email, &u.APIKeyHash)
	return u, err
}

type GetUsersParams struct {
	Limit  int32
	Offset int32
}

const getUsers = `
SELECT user_handle
FROM users
ORDER BY user_handle
LIMIT $1 OFFSET $2
`

func (q *Queries) GetUsers(ctx context.Context, arg GetUsersParams) ([]string, error) {
	rows, err := q.db.Query(ctx, getUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, rows.Err()
}

const deleteUser = `
DELETE FROM users
WHERE user_handle = $1
`

func (q *Queries) DeleteUser(ctx context.Context, userHandle string) error {
	_, err := q.db.Exec(ctx, deleteUser, userHandle)
	return err
}

const getKeyByUser = `
SELECT api_key_hash
FROM users
WHERE user_handle = $1
`

// GetKeyByUser returns the stored hash of a user's API key.
func (q *Queries) GetKeyByUser(ctx context.Context, userHandle string) (string, error) {
	row := q.db.QueryRow(ctx, getKeyByUser, userHandle)
	var hash string
	err := row.Scan(&hash)
	return hash, err
}

// --- Subscriptions ---

const createSubscription = `
INSERT INTO subscriptions (user_handle)
VALUES ($1)
`

func (q *Queries) CreateSubscription(ctx context.Context, userHandle string) error {
	_, err := q.db.Exec(ctx, createSubscription, userHandle)
	return err
}

const subscriptionExists = `
SELECT EXISTS (
  SELECT 1 FROM subscriptions WHERE user_handle = $1
)
`

func (q *Queries) SubscriptionExists(ctx context.Context, userHandle string) (bool, error) {
	row := q.db.QueryRow(ctx, subscriptionExists, userHandle)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

type SubscriptionPeriod struct {
	PeriodID   int32
	UserHandle string
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Amount     int32
}

type AppendPeriodParams struct {
	UserHandle string
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Amount     int32
}

const appendPeriod = `
INSERT INTO subscription_periods (user_handle, start_date, end_date, amount)
VALUES ($1, $2, $3, $4)
`

func (q *Queries) AppendPeriod(ctx context.Context, arg AppendPeriodParams) error {
	_, err := q.db.Exec(ctx, appendPeriod, arg.UserHandle, arg.StartDate, arg.EndDate, arg.Amount)
	return err
}

const getPeriodsByUser = `
SELECT period_id, user_handle, start_date, end_date, amount
FROM subscription_periods
WHERE user_handle = $1
ORDER BY period_id
`

func (q *Queries) GetPeriodsByUser(ctx context.Context, userHandle string) ([]SubscriptionPeriod, error) {
	rows, err := q.db.Query(ctx, getPeriodsByUser, userHandle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []SubscriptionPeriod
	for rows.Next() {
		var p SubscriptionPeriod
		if err := rows.Scan(&p.PeriodID, &p.UserHandle, &p.StartDate, &p.EndDate, &p.Amount); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

type GetSubscribedUsersParams struct {
	Limit  int32
	Offset int32
}

const getSubscribedUsers = `
SELECT user_handle
FROM subscriptions
ORDER BY user_handle
LIMIT $1 OFFSET $2
`

func (q *Queries) GetSubscribedUsers(ctx context.Context, arg GetSubscribedUsersParams) ([]string, error) {
	rows, err := q.db.Query(ctx, getSubscribedUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, rows.Err()
}

const deleteSubscription = `
DELETE FROM subscriptions
WHERE user_handle = $1
`

func (q *Queries) DeleteSubscription(ctx context.Context, userHandle string) error {
	_, err := q.db.Exec(ctx, deleteSubscription, userHandle)
	return err
}

// --- Model services ---

type ModelService struct {
	ModelServiceID     int32
	Owner              string
	ModelServiceHandle string
	Endpoint           string
	Description        pgtype.Text
	APIKey             pgtype.Text
	APIStandard        string
	Model              string
	RequestDefaults    json.RawMessage
}

type UpsertModelServiceParams struct {
	Owner              string
	ModelServiceHandle string
	Endpoint           string
	Description        pgtype.Text
	APIKey             pgtype.Text
	APIStandard        string
	Model              string
	RequestDefaults    json.RawMessage
}

const upsertModelService = `
INSERT INTO model_services (owner, model_service_handle, endpoint, description, api_key, api_standard, model, request_defaults)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (owner, model_service_handle) DO UPDATE
  SET endpoint = EXCLUDED.endpoint,
      description = EXCLUDED.description,
      api_key = EXCLUDED.api_key,
      api_standard = EXCLUDED.api_standard,
      model = EXCLUDED.model,
      request_defaults = EXCLUDED.request_defaults,
      updated_at = now()
RETURNING model_service_id, owner, model_service_handle, endpoint, description, api_key, api_standard, model, request_defaults
`

func (q *Queries) UpsertModelService(ctx context.Context, arg UpsertModelServiceParams) (ModelService, error) {
	row := q.db.QueryRow(ctx, upsertModelService,
		arg.Owner, arg.ModelServiceHandle, arg.Endpoint, arg.Description,
		arg.APIKey, arg.APIStandard, arg.Model, arg.RequestDefaults)
	var m ModelService
	err := row.Scan(&m.ModelServiceID, &m.Owner, &m.ModelServiceHandle, &m.Endpoint,
		&m.Description, &m.APIKey, &m.APIStandard, &m.Model, &m.RequestDefaults)
	return m, err
}

type RetrieveModelServiceParams struct {
	Owner              string
	ModelServiceHandle string
}

const retrieveModelService = `
SELECT model_service_id, owner, model_service_handle, endpoint, description, api_key, api_standard, model, request_defaults
FROM model_services
WHERE owner = $1 AND model_service_handle = $2
`

func (q *Queries) RetrieveModelService(ctx context.Context, arg RetrieveModelServiceParams) (ModelService, error) {
	row := q.db.QueryRow(ctx, retrieveModelService, arg.Owner, arg.ModelServiceHandle)
	var m ModelService
	err := row.Scan(&m.ModelServiceID, &m.Owner, &m.ModelServiceHandle, &m.Endpoint,
		&m.Description, &m.APIKey, &m.APIStandard, &m.Model, &m.RequestDefaults)
	return m, err
}

type GetModelServicesByUserParams struct {
	Owner  string
	Limit  int32
	Offset int32
}

const getModelServicesByUser = `
SELECT model_service_id, owner, model_service_handle, endpoint, description, api_key, api_standard, model, request_defaults
FROM model_services
WHERE owner = $1
ORDER BY model_service_handle
LIMIT $2 OFFSET $3
`

func (q *Queries) GetModelServicesByUser(ctx context.Context, arg GetModelServicesByUserParams) ([]ModelService, error) {
	rows, err := q.db.Query(ctx, getModelServicesByUser, arg.Owner, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var services []ModelService
	for rows.Next() {
		var m ModelService
		if err := rows.Scan(&m.ModelServiceID, &m.Owner, &m.ModelServiceHandle, &m.Endpoint,
			&m.Description, &m.APIKey, &m.APIStandard, &m.Model, &m.RequestDefaults); err != nil {
			return nil, err
		}
		services = append(services, m)
	}
	return services, rows.Err()
}

const getModelServiceHandlesByUser = `
SELECT model_service_handle
FROM model_services
WHERE owner = $1
ORDER BY model_service_handle
`

func (q *Queries) GetModelServiceHandlesByUser(ctx context.Context, owner string) ([]string, error) {
	rows, err := q.db.Query(ctx, getModelServiceHandlesByUser, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, rows.Err()
}

type DeleteModelServiceParams struct {
	Owner              string
	ModelServiceHandle string
}

const deleteModelService = `
DELETE FROM model_services
WHERE owner = $1 AND model_service_handle = $2
`

func (q *Queries) DeleteModelService(ctx context.Context, arg DeleteModelServiceParams) error {
	_, err := q.db.Exec(ctx, deleteModelService, arg.Owner, arg.ModelServiceHandle)
	return err
}

// --- Generations ---

type Generation struct {
	GenerationID string
	UserHandle   string
	Model        string
	PromptChars  int32
	OutputChars  int32
	DurationMS   int32
	CreatedAt    pgtype.Timestamptz
}

type InsertGenerationParams struct {
	GenerationID string
	UserHandle   string
	Model        string
	PromptChars  int32
	OutputChars  int32
	DurationMS   int32
}

const insertGeneration = `
INSERT INTO generations (generation_id, user_handle, model, prompt_chars, output_chars, duration_ms)
VALUES ($1::uuid, $2, $3, $4, $5, $6)
`

func (q *Queries) InsertGeneration(ctx context.Context, arg InsertGenerationParams) error {
	_, err := q.db.Exec(ctx, insertGeneration,
		arg.GenerationID, arg.UserHandle, arg.Model, arg.PromptChars, arg.OutputChars, arg.DurationMS)
	return err
}

type GetGenerationsByUserParams struct {
	UserHandle string
	Limit      int32
	Offset     int32
}

const getGenerationsByUser = `
SELECT generation_id::text, user_handle, model, prompt_chars, output_chars, duration_ms, created_at
FROM generations
WHERE user_handle = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) GetGenerationsByUser(ctx context.Context, arg GetGenerationsByUserParams) ([]Generation, error) {
	rows, err := q.db.Query(ctx, getGenerationsByUser, arg.UserHandle, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var generations []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.GenerationID, &g.UserHandle, &g.Model,
			&g.PromptChars, &g.OutputChars, &g.DurationMS, &g.CreatedAt); err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}
	return generations, rows.Err()
}

// --- Admin ---

// DeleteAllRecords empties all tables. Order matters because of the
// foreign key constraints.
func (q *Queries) DeleteAllRecords(ctx context.Context) error {
	for _, stmt := range []string{
		"DELETE FROM generations",
		"DELETE FROM model_services",
		"DELETE FROM subscription_periods",
		"DELETE FROM subscriptions",
		"DELETE FROM users",
	} {
		if _, err := q.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ResetAllSerials restarts all serial counters.
func (q *Queries) ResetAllSerials(ctx context.Context) error {
	for _, stmt := range []string{
		"ALTER SEQUENCE subscription_periods_period_id_seq RESTART WITH 1",
		"ALTER SEQUENCE model_services_model_service_id_seq RESTART WITH 1",
	} {
		if _, err := q.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
