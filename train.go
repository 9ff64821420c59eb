package nlpkit

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/happyhackingspace/nlpkit/classifier"
	"github.com/happyhackingspace/nlpkit/internal/corpus"
	"github.com/happyhackingspace/nlpkit/trainer"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	// Params configures every tool; POS, Chunk and Entity override it per
	// tool. A nil Params means trainer.DefaultParams.
	Params *trainer.Params
	POS    *trainer.Params
	Chunk  *trainer.Params
	Entity *trainer.Params

	Registry *trainer.Registry
	Monitor  trainer.Monitor
	BeamSize int
	// TagDictCutoff builds a tag dictionary from words seen at least this
	// often. Zero disables it.
	TagDictCutoff int
}

// DefaultTrainConfig returns the default training configuration.
func DefaultTrainConfig() *TrainConfig {
	return &TrainConfig{
		Params:        trainer.DefaultParams(),
		TagDictCutoff: 3,
	}
}

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	Folds int
	Train *TrainConfig
}

// EvalResult holds cross-validation evaluation results.
type EvalResult struct {
	POSAccuracy      float64 `json:"pos_accuracy"`
	SentenceAccuracy float64 `json:"sentence_accuracy"`
	ChunkAccuracy    float64 `json:"chunk_accuracy"`
	EntityPrecision  float64 `json:"entity_precision"`
	EntityRecall     float64 `json:"entity_recall"`
	EntityF1         float64 `json:"entity_f1"`

	POSCorrect      int `json:"pos_correct"`
	POSTotal        int `json:"pos_total"`
	SentenceCorrect int `json:"sentence_correct"`
	SentenceTotal   int `json:"sentence_total"`
	ChunkCorrect    int `json:"chunk_correct"`
	ChunkTotal      int `json:"chunk_total"`
	EntityFound     int `json:"entity_found"`
	EntityExpected  int `json:"entity_expected"`
	EntityCorrect   int `json:"entity_correct"`
	Folds           int `json:"folds"`
}

// TrainReport records what a training run did.
type TrainReport struct {
	RunID     string            `json:"run_id"`
	Sentences int               `json:"sentences"`
	POS       map[string]string `json:"pos"`
	Chunk     map[string]string `json:"chunk,omitempty"`
	Entity    map[string]string `json:"entity,omitempty"`
}

// Train trains a pipeline on the corpus files in dataDir.
func Train(ctx context.Context, dataDir string, config *TrainConfig) (*Pipeline, *TrainReport, error) {
	sentences, err := loadCorpus(dataDir)
	if err != nil {
		return nil, nil, err
	}
	report := &TrainReport{RunID: uuid.NewString(), Sentences: len(sentences)}
	p, err := trainSentences(ctx, sentences, config, report)
	if err != nil {
		return nil, nil, err
	}
	return p, report, nil
}

// Evaluate runs grouped k-fold cross-validation on the corpus in dataDir.
// Sentences of the same group (source file or source domain) never appear
// in both the training and the test side of a fold. Chunkers and entity
// finders are scored on gold part-of-speech tags.
func Evaluate(ctx context.Context, dataDir string, config *EvalConfig) (*EvalResult, error) {
	nFolds := 10
	var trainCfg *TrainConfig
	if config != nil {
		if config.Folds > 0 {
			nFolds = config.Folds
		}
		trainCfg = config.Train
	}
	sentences, err := loadCorpus(dataDir)
	if err != nil {
		return nil, err
	}
	folds := groupKFold(sentenceGroups(sentences), nFolds)
	if len(folds) < 2 {
		return nil, fmt.Errorf("nlpkit: need at least 2 groups for cross-validation, have %d", len(folds))
	}

	result := &EvalResult{Folds: len(folds)}
	for fold, testIdx := range folds {
		testSet := makeTestSet(len(sentences), testIdx)
		var train []corpus.Sentence
		for i, s := range sentences {
			if !testSet[i] {
				train = append(train, s)
			}
		}
		slog.Debug("Evaluating fold", "fold", fold+1, "train", len(train), "test", len(testIdx))
		p, err := trainSentences(ctx, train, trainCfg, nil)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold+1, err)
		}
		for _, idx := range testIdx {
			scoreSentence(p, sentences[idx], result)
		}
	}
	result.finish()
	return result, nil
}

func scoreSentence(p *Pipeline, s corpus.Sentence, r *EvalResult) {
	words, gold := s.Words(), s.POSTags()
	pred := p.POS.Tag(words, nil)
	allCorrect := true
	for j := range gold {
		if j < len(pred) && pred[j] == gold[j] {
			r.POSCorrect++
		} else {
			allCorrect = false
		}
		r.POSTotal++
	}
	if allCorrect {
		r.SentenceCorrect++
	}
	r.SentenceTotal++

	if p.Chunker != nil && s.HasChunks() {
		chunks := p.Chunker.Chunk(words, gold)
		for j, want := range s.Chunks() {
			if j < len(chunks) && chunks[j] == want {
				r.ChunkCorrect++
			}
			r.ChunkTotal++
		}
	}
	if p.Entities != nil && s.HasEntities() {
		expected := classifier.SpansFromBIO(s.Entities())
		found := p.Entities.Find(words, gold)
		r.EntityExpected += len(expected)
		r.EntityFound += len(found)
		for _, sp := range found {
			if slices.Contains(expected, sp) {
				r.EntityCorrect++
			}
		}
	}
}

func (r *EvalResult) finish() {
	ratio := func(a, b int) float64 {
		if b == 0 {
			return 0
		}
		return float64(a) / float64(b)
	}
	r.POSAccuracy = ratio(r.POSCorrect, r.POSTotal)
	r.SentenceAccuracy = ratio(r.SentenceCorrect, r.SentenceTotal)
	r.ChunkAccuracy = ratio(r.ChunkCorrect, r.ChunkTotal)
	r.EntityPrecision = ratio(r.EntityCorrect, r.EntityFound)
	r.EntityRecall = ratio(r.EntityCorrect, r.EntityExpected)
	if r.EntityPrecision+r.EntityRecall > 0 {
		r.EntityF1 = 2 * r.EntityPrecision * r.EntityRecall / (r.EntityPrecision + r.EntityRecall)
	}
}

func loadCorpus(dataDir string) ([]corpus.Sentence, error) {
	sentences, err := corpus.NewStorage(dataDir).ReadAll(corpus.DefaultIterOptions())
	if err != nil {
		return nil, fmt.Errorf("nlpkit: %w", err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("nlpkit: no sentences found in %s", dataDir)
	}
	return sentences, nil
}

func (c *TrainConfig) toolOptions(override *trainer.Params, report *trainer.Report) classifier.TrainOptions {
	params := c.Params
	if params == nil {
		params = trainer.DefaultParams()
	}
	if override != nil {
		params = params.Clone()
		params.Merge(override)
	}
	return classifier.TrainOptions{
		Registry: c.Registry,
		Params:   params,
		Report:   report,
		Monitor:  c.Monitor,
		BeamSize: c.BeamSize,
	}
}

// Validate checks the merged parameters of every tool against the
// registry, so an invalid override fails before any tool is trained.
func (c *TrainConfig) Validate() error {
	registry := c.Registry
	if registry == nil {
		registry = trainer.NewRegistry()
	}
	var result *multierror.Error
	for _, tool := range []struct {
		name     string
		override *trainer.Params
	}{
		{"pos", c.POS},
		{"chunk", c.Chunk},
		{"entity", c.Entity},
	} {
		if err := registry.ValidateParams(c.toolOptions(tool.override, nil).Params); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", tool.name, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("nlpkit: invalid training configuration: %w", err)
	}
	return nil
}

func trainSentences(ctx context.Context, sentences []corpus.Sentence, config *TrainConfig, report *TrainReport) (*Pipeline, error) {
	if config == nil {
		config = DefaultTrainConfig()
	}
	if config.Registry == nil {
		cfg := *config
		cfg.Registry = trainer.NewRegistry()
		config = &cfg
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var words, tags, chunks, entities [][]string
	var chunkIdx, entityIdx []int
	for i, s := range sentences {
		words = append(words, s.Words())
		tags = append(tags, s.POSTags())
		chunks = append(chunks, s.Chunks())
		entities = append(entities, s.Entities())
		if s.HasChunks() {
			chunkIdx = append(chunkIdx, i)
		}
		if s.HasEntities() {
			entityIdx = append(entityIdx, i)
		}
	}

	posReport := trainer.NewReport()
	pos, err := classifier.TrainPOSTagger(ctx, classifier.POSSamples(words, tags), config.TagDictCutoff, config.toolOptions(config.POS, posReport))
	if err != nil {
		return nil, fmt.Errorf("nlpkit: train pos tagger: %w", err)
	}
	p := &Pipeline{POS: pos}
	if report != nil {
		report.POS = posReport.Map()
	}

	if len(chunkIdx) > 0 {
		r := trainer.NewReport()
		samples := classifier.ChunkSamples(pick(words, chunkIdx), pick(tags, chunkIdx), pick(chunks, chunkIdx))
		p.Chunker, err = classifier.TrainChunker(ctx, samples, config.toolOptions(config.Chunk, r))
		if err != nil {
			return nil, fmt.Errorf("nlpkit: train chunker: %w", err)
		}
		if report != nil {
			report.Chunk = r.Map()
		}
	}
	if len(entityIdx) > 0 {
		r := trainer.NewReport()
		samples := classifier.EntitySamples(pick(words, entityIdx), pick(tags, entityIdx), pick(entities, entityIdx))
		p.Entities, err = classifier.TrainEntityFinder(ctx, samples, config.toolOptions(config.Entity, r))
		if err != nil {
			return nil, fmt.Errorf("nlpkit: train entity finder: %w", err)
		}
		if report != nil {
			report.Entity = r.Map()
		}
	}
	return p, nil
}

func pick(xs [][]string, idx []int) [][]string {
	out := make([][]string, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func groupKFold(groups []int, nFolds int) [][]int {
	uniqueGroups := make(map[int]bool)
	for _, g := range groups {
		uniqueGroups[g] = true
	}
	sortedGroups := slices.Sorted(maps.Keys(uniqueGroups))

	if nFolds > len(sortedGroups) {
		nFolds = len(sortedGroups)
	}

	groupToFold := make(map[int]int)
	for i, g := range sortedGroups {
		groupToFold[g] = i % nFolds
	}

	folds := make([][]int, nFolds)
	for i, g := range groups {
		fold := groupToFold[g]
		folds[fold] = append(folds[fold], i)
	}
	return folds
}

func sentenceGroups(sentences []corpus.Sentence) []int {
	groups := make([]int, len(sentences))
	groupMap := make(map[string]int)
	for i, s := range sentences {
		if _, ok := groupMap[s.Group]; !ok {
			groupMap[s.Group] = len(groupMap)
		}
		groups[i] = groupMap[s.Group]
	}
	return groups
}

func makeTestSet(n int, testIdx []int) []bool {
	set := make([]bool, n)
	for _, i := range testIdx {
		set[i] = true
	}
	return set
}
