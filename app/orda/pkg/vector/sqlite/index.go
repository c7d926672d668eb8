// Package sqlite 是基于 SQLite 的本地向量索引，适合开发环境与小规模目录。
//
// 嵌入以 CBOR 编码存放，检索时在命名空间内做暴力余弦相似度计算。
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

// Index SQLite 向量索引，方法可并发调用
type Index struct {
	db       *sql.DB
	embedder embedding.Embedder
	mu       sync.RWMutex
}

var _ vector.Index = (*Index)(nil)

// Open 打开（或创建）索引，path 为 ":memory:" 时使用内存库
func Open(path string, embedder embedding.Embedder) (*Index, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS vectors (
		namespace TEXT NOT NULL,
		id TEXT NOT NULL,
		text TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL,
		PRIMARY KEY (namespace, id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Index{db: db, embedder: embedder}, nil
}

// Close 关闭数据库
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.db.Close()
}

// Upsert 计算嵌入并写入文档
func (x *Index) Upsert(ctx context.Context, namespace string, docs []vector.Document) (err error) {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := x.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embed documents: got %d vectors for %d docs", len(vecs), len(docs))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (namespace, id, text, metadata, embedding) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET text = excluded.text, metadata = excluded.metadata, embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		blob, err := cbor.Marshal(vecs[i])
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		md, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, d.ID, d.Text, string(md), blob); err != nil {
			return fmt.Errorf("upsert %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// Query 检索与 text 最相近的 k 个文档
func (x *Index) Query(ctx context.Context, text, namespace string, k int) ([]vector.Match, error) {
	vecs, err := x.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	q := vecs[0]

	x.mu.RLock()
	defer x.mu.RUnlock()

	rows, err := x.db.QueryContext(ctx, `SELECT id, text, metadata, embedding FROM vectors WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var matches []vector.Match
	for rows.Next() {
		var (
			m    vector.Match
			md   sql.NullString
			blob []byte
			emb  []float64
		)
		if err := rows.Scan(&m.ID, &m.Text, &md, &blob); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		if err := cbor.Unmarshal(blob, &emb); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", m.ID, err)
		}
		if md.Valid && md.String != "" {
			if err := json.Unmarshal([]byte(md.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata %s: %w", m.ID, err)
			}
		}
		m.Distance = vector.DistanceFromCosine(vector.CosineSimilarity(q, emb))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Stats 每个命名空间的文档数
func (x *Index) Stats(ctx context.Context) (vector.Stats, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rows, err := x.db.QueryContext(ctx, `SELECT namespace, COUNT(*) FROM vectors GROUP BY namespace`)
	if err != nil {
		return vector.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	st := vector.Stats{Namespaces: map[string]int{}}
	for rows.Next() {
		var (
			ns string
			n  int
		)
		if err := rows.Scan(&ns, &n); err != nil {
			return vector.Stats{}, err
		}
		st.Namespaces[ns] = n
		st.Total += n
	}
	if err := rows.Err(); err != nil {
		return vector.Stats{}, err
	}

	var blob []byte
	err = x.db.QueryRowContext(ctx, `SELECT embedding FROM vectors LIMIT 1`).Scan(&blob)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return vector.Stats{}, err
	default:
		var emb []float64
		if err := cbor.Unmarshal(blob, &emb); err == nil {
			st.Dimension = len(emb)
		}
	}
	return st, nil
}
