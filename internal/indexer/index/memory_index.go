package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// MemoryIndex accumulates, per language, the set of documents each word
// occurs in. It is built in one pass and read once by Snapshot.
type MemoryIndex struct {
	index    map[string]map[string]*roaring.Bitmap
	docCount int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]map[string]*roaring.Bitmap),
	}
}

// AddDocument records docID under every word for lang. Repeated words, or a
// repeated call for the same document, add the id only once.
func (m *MemoryIndex) AddDocument(docID uint32, lang string, words []string) {
	m.docCount++
	if len(words) == 0 {
		return
	}
	vocab, ok := m.index[lang]
	if !ok {
		vocab = make(map[string]*roaring.Bitmap)
		m.index[lang] = vocab
	}
	for _, word := range words {
		docs, ok := vocab[word]
		if !ok {
			docs = roaring.New()
			vocab[word] = docs
		}
		docs.Add(docID)
	}
}

// Search returns the documents containing word in lang.
func (m *MemoryIndex) Search(lang, word string) PostingList {
	docs, ok := m.index[lang][word]
	if !ok {
		return nil
	}
	return docs.ToArray()
}

// Snapshot lists every (language, word) pair whose document count is at most
// maxOccurrences, ordered by language then word. A negative maxOccurrences
// keeps every pair. The second result counts pruned pairs per language.
func (m *MemoryIndex) Snapshot(maxOccurrences int) ([]TermEntry, map[string]int) {
	pruned := make(map[string]int)
	langs := make([]string, 0, len(m.index))
	for lang := range m.index {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var entries []TermEntry
	for _, lang := range langs {
		vocab := m.index[lang]
		terms := make([]string, 0, len(vocab))
		for term := range vocab {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			docs := vocab[term]
			if maxOccurrences >= 0 && docs.GetCardinality() > uint64(maxOccurrences) {
				pruned[lang]++
				continue
			}
			entries = append(entries, TermEntry{
				Lang:     lang,
				Term:     term,
				Postings: docs.ToArray(),
			})
		}
	}
	return entries, pruned
}

func (m *MemoryIndex) DocCount() int {
	return m.docCount
}

// Terms returns the number of distinct (language, word) pairs.
func (m *MemoryIndex) Terms() int {
	n := 0
	for _, vocab := range m.index {
		n += len(vocab)
	}
	return n
}
