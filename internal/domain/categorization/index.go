package categorization

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
)

// correctionDoc is the indexed form of one learned correction.
type correctionDoc struct {
	UserID   string `json:"user_id"`
	Key      string `json:"key"`
	Category string `json:"category"`
}

// NGramIndex narrows fuzzy-lookup candidates for large correction sets.
// The learner still verifies every candidate against its similarity
// threshold; the index only prunes the scan.
type NGramIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewNGramIndex creates an in-memory candidate index.
func NewNGramIndex() (*NGramIndex, error) {
	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("user_id", keywordField)
	docMapping.AddFieldMappingsAt("key", textField)
	docMapping.AddFieldMappingsAt("category", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("categorization: create index: %w", err)
	}
	return &NGramIndex{index: index}, nil
}

// Add indexes one learned pair.
func (n *NGramIndex) Add(userID uuid.UUID, key, category string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	docID := userID.String() + "/" + key
	return n.index.Index(docID, correctionDoc{
		UserID:   userID.String(),
		Key:      key,
		Category: category,
	})
}

// Candidates returns learned pairs whose keys are plausibly close to the
// lookup key. A nil map means the index has nothing useful and the caller
// should fall back to the full scan.
func (n *NGramIndex) Candidates(userID uuid.UUID, key string) (map[string]string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	userQuery := bleve.NewTermQuery(userID.String())
	userQuery.SetField("user_id")

	fuzzyQuery := bleve.NewFuzzyQuery(key)
	fuzzyQuery.SetField("key")
	fuzzyQuery.SetFuzziness(2)

	req := bleve.NewSearchRequest(query.NewConjunctionQuery([]query.Query{userQuery, fuzzyQuery}))
	req.Fields = []string{"key", "category"}
	req.Size = 50

	res, err := n.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("categorization: search index: %w", err)
	}
	if res.Total == 0 {
		return nil, nil
	}

	candidates := make(map[string]string, len(res.Hits))
	for _, hit := range res.Hits {
		k, _ := hit.Fields["key"].(string)
		category, _ := hit.Fields["category"].(string)
		if k != "" && category != "" {
			candidates[k] = category
		}
	}
	return candidates, nil
}

// Close releases the underlying index.
func (n *NGramIndex) Close() error {
	return n.index.Close()
}
