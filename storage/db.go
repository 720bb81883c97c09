package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// errNoMatch indica um filtro que não pode casar com nenhuma linha (ex.: _id não numérico).
var errNoMatch = errors.New("filtro sem correspondência possível")

// DB representa a conexão com o banco de dados PostgreSQL. Cada coleção vira uma
// tabela (id BIGSERIAL, doc JSONB); o id da linha é o identificador interno.
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// NewDB conecta-se ao PostgreSQL e executa as migrações.
func NewDB(ctx context.Context, dataSourceName string, logger *zap.Logger) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao pingar o banco de dados: %w", err)
	}
	logger.Info("conexão com PostgreSQL estabelecida")

	d := NewDBFromConn(db, logger)
	if err := d.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao executar migrações: %w", err)
	}
	return d, nil
}

// NewDBFromConn usa uma conexão já aberta, sem migrar.
func NewDBFromConn(db *sqlx.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Migrate aplica as migrações embutidas no binário.
func (d *DB) Migrate() error {
	return runMigrations(d.DB.DB, d.logger)
}

// runMigrations executa as migrações usando sql-migrate.
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	if n > 0 {
		logger.Info("migrações aplicadas", zap.Int("count", n))
	} else {
		logger.Info("nenhuma migração nova para aplicar")
	}
	return nil
}

// InsertOne grava doc na tabela da coleção e devolve o id gerado pelo BIGSERIAL.
func (d *DB) InsertOne(ctx context.Context, coll Collection, doc any) (string, error) {
	table, err := tableFor(coll)
	if err != nil {
		return "", err
	}
	body, err := toDocument(doc)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("falha ao codificar documento: %w", err)
	}

	var id int64
	query := `INSERT INTO ` + table + ` (doc) VALUES ($1::jsonb) RETURNING id`
	if err := d.QueryRowxContext(ctx, query, string(raw)).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("inserir em %s: %w", coll, ErrDuplicate)
		}
		return "", fmt.Errorf("falha ao inserir em %s: %w", coll, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// FindOne decodifica em out o primeiro documento que casa com filter.
func (d *DB) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	table, err := tableFor(coll)
	if err != nil {
		return err
	}
	where, args, err := whereClause(filter, 1)
	if errors.Is(err, errNoMatch) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var raw []byte
	query := `SELECT doc FROM ` + table + ` WHERE ` + where + ` ORDER BY id LIMIT 1`
	if err := d.QueryRowxContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("falha ao buscar em %s: %w", coll, err)
	}
	return decodeInto(raw, out)
}

// FindMany decodifica em out todos os documentos que casam, ordenados por id.
func (d *DB) FindMany(ctx context.Context, coll Collection, filter Filter, out any) error {
	table, err := tableFor(coll)
	if err != nil {
		return err
	}
	where, args, err := whereClause(filter, 1)
	if errors.Is(err, errNoMatch) {
		return decodeList(nil, out)
	}
	if err != nil {
		return err
	}

	query := `SELECT doc FROM ` + table + ` WHERE ` + where + ` ORDER BY id`
	rows, err := d.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("falha ao listar %s: %w", coll, err)
	}
	defer rows.Close()

	var raws [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("falha ao ler linha de %s: %w", coll, err)
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("falha ao iterar %s: %w", coll, err)
	}
	return decodeList(raws, out)
}

// UpdateOne trava a linha (SELECT ... FOR UPDATE), aplica a atualização em Go com a
// mesma semântica dos outros backends e grava o documento inteiro de volta.
func (d *DB) UpdateOne(ctx context.Context, coll Collection, filter Filter, update Update, out any) error {
	table, err := tableFor(coll)
	if err != nil {
		return err
	}
	where, args, err := whereClause(filter, 1)
	if errors.Is(err, errNoMatch) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			d.logger.Error("falha ao desfazer transação", zap.String("collection", string(coll)), zap.Error(err))
		}
	}()

	var (
		id  int64
		raw []byte
	)
	query := `SELECT id, doc FROM ` + table + ` WHERE ` + where + ` ORDER BY id LIMIT 1 FOR UPDATE`
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&id, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("falha ao travar documento de %s: %w", coll, err)
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return err
	}
	if err := apply(doc, update); err != nil {
		return err
	}
	next, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("falha ao codificar documento: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET doc = $1::jsonb WHERE id = $2`, string(next), id); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("atualizar %s: %w", coll, ErrDuplicate)
		}
		return fmt.Errorf("falha ao atualizar %s: %w", coll, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao confirmar transação: %w", err)
	}
	return decodeInto(next, out)
}

// DeleteOne remove o primeiro documento que casa.
func (d *DB) DeleteOne(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	table, err := tableFor(coll)
	if err != nil {
		return 0, err
	}
	where, args, err := whereClause(filter, 1)
	if errors.Is(err, errNoMatch) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	query := `DELETE FROM ` + table + ` WHERE id = (SELECT id FROM ` + table + ` WHERE ` + where + ` ORDER BY id LIMIT 1)`
	res, err := d.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("falha ao remover de %s: %w", coll, err)
	}
	return res.RowsAffected()
}

// DeleteMany remove todos os documentos que casam.
func (d *DB) DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	table, err := tableFor(coll)
	if err != nil {
		return 0, err
	}
	where, args, err := whereClause(filter, 1)
	if errors.Is(err, errNoMatch) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	res, err := d.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("falha ao remover de %s: %w", coll, err)
	}
	return res.RowsAffected()
}

// Close fecha o pool de conexões.
func (d *DB) Close(ctx context.Context) error {
	return d.DB.Close()
}

// tableFor devolve o nome da tabela; só coleções conhecidas chegam ao SQL.
func tableFor(coll Collection) (string, error) {
	if !coll.valid() {
		return "", fmt.Errorf("coleção desconhecida: %q", coll)
	}
	return string(coll), nil
}

// whereClause traduz filter em SQL. _id vira comparação com a chave primária e os
// demais campos viram um único teste de contenção JSONB (doc @> {...}).
func whereClause(filter Filter, firstArg int) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	n := firstArg

	if rawID, ok := filter[InternalIDKey]; ok {
		s, _ := rawID.(string)
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", nil, errNoMatch
		}
		clauses = append(clauses, "id = $"+strconv.Itoa(n))
		args = append(args, id)
		n++
	}

	rest := make(map[string]any, len(filter))
	for field, v := range filter {
		if field != InternalIDKey {
			rest[field] = v
		}
	}
	if len(rest) > 0 {
		raw, err := json.Marshal(rest)
		if err != nil {
			return "", nil, fmt.Errorf("falha ao codificar filtro: %w", err)
		}
		clauses = append(clauses, "doc @> $"+strconv.Itoa(n)+"::jsonb")
		args = append(args, string(raw))
	}

	if len(clauses) == 0 {
		return "TRUE", nil, nil
	}
	return strings.Join(clauses, " AND "), args, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
