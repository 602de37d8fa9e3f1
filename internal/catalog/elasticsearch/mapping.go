package elasticsearch

// Default index names for catalog documents.
const (
	DefaultItemsIndex   = "marketplace_items"
	DefaultVendorsIndex = "marketplace_vendors"
)

// analysisSettings declares the lowercase normalizer backing the ".lower"
// keyword subfields used for substring and prefix matching.
const analysisSettings = `
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "normalizer": {
        "lowercase_normalizer": {
          "type": "custom",
          "filter": ["lowercase"]
        }
      }
    }
  }`

// buildItemsMapping returns the JSON mapping for the items index.
func buildItemsMapping() string {
	return `{` + analysisSettings + `,
  "mappings": {
    "properties": {
      "id":              { "type": "keyword" },
      "name":            { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 256 } } },
      "slug":            { "type": "keyword" },
      "description":     { "type": "text", "fields": { "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 8191 } } },
      "tags":            { "type": "keyword", "normalizer": "lowercase_normalizer" },
      "price":           { "type": "long" },
      "promo_price":     { "type": "long" },
      "effective_price": { "type": "long" },
      "on_promo":        { "type": "boolean" },
      "stock":           { "type": "integer" },
      "image":           { "type": "keyword", "index": false },
      "status":          { "type": "keyword" },
      "vendor_id":       { "type": "keyword" },
      "vendor_name":     { "type": "keyword" },
      "vendor_logo":     { "type": "keyword", "index": false },
      "category_id":     { "type": "keyword" },
      "category_name":   { "type": "keyword" },
      "created_at":      { "type": "date" }
    }
  }
}`
}

// buildVendorsMapping returns the JSON mapping for the vendors index.
func buildVendorsMapping() string {
	return `{` + analysisSettings + `,
  "mappings": {
    "properties": {
      "id":           { "type": "keyword" },
      "name":         { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 256 } } },
      "slug":         { "type": "keyword" },
      "description":  { "type": "text", "fields": { "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 8191 } } },
      "category":     { "type": "text", "fields": { "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 256 } } },
      "logo":         { "type": "keyword", "index": false },
      "rating":       { "type": "float" },
      "review_count": { "type": "integer" },
      "status":       { "type": "keyword" },
      "created_at":   { "type": "date" }
    }
  }
}`
}
