package db

import "fmt"

// SchemaSQL returns the schema initialization SQL. The HNSW index
// dimension must match the embedder in front of the durable store.
func SchemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- MEMORY TABLE (durable tier component records)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS memory SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS source_item_id ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS component_index ON memory TYPE int;
    DEFINE FIELD IF NOT EXISTS storage_type ON memory TYPE string DEFAULT 'durable';
    DEFINE FIELD IF NOT EXISTS has_pii ON memory TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS has_high_risk_pii ON memory TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS detected_entity_ids ON memory TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS significance_category ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS significance_level ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS storage_recommendation ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS pending_consent ON memory TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS embedding ON memory TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS timestamp ON memory TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS memory_user ON memory FIELDS user_id;
    DEFINE INDEX IF NOT EXISTS memory_embedding ON memory FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
    DEFINE ANALYZER IF NOT EXISTS memory_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);
    DEFINE INDEX IF NOT EXISTS memory_content_ft ON memory FIELDS content FULLTEXT ANALYZER memory_analyzer BM25;

    -- ==========================================================================
    -- PENDING CONSENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS pending_consent SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON pending_consent TYPE string;
    DEFINE FIELD IF NOT EXISTS component ON pending_consent TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS ephemeral_id ON pending_consent TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS entities ON pending_consent TYPE array<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON pending_consent TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS resolution ON pending_consent TYPE string DEFAULT 'pending';
    DEFINE FIELD IF NOT EXISTS resolved ON pending_consent TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS pending_user ON pending_consent FIELDS user_id;
    DEFINE INDEX IF NOT EXISTS pending_resolution ON pending_consent FIELDS resolution;
`, embeddingDim)
}
