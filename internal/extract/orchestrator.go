// Package extract turns free-form activity text into structured emission
// records: segmentation, oracle extraction, deterministic fallback, quantity
// parsing, and batch assembly.
package extract

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/carbonlog/internal/carbon"
	"example.com/carbonlog/internal/domain"
	"example.com/carbonlog/internal/observability"
)

const (
	reasonNotRecognized = "not recognized"
	reasonSaveFailed    = "failed to save"
)

// EventPublisher receives a best-effort notification for each persisted
// record. Failures are logged, never propagated.
type EventPublisher interface {
	ActivityLogged(ctx context.Context, record domain.ActivityRecord) error
}

// Orchestrator drives the per-sentence extraction state machine and
// assembles batch results. Sentences are processed sequentially in input
// order; every per-sentence failure is absorbed into the failed list.
type Orchestrator struct {
	oracle     Oracle
	classifier *Classifier
	calculator *carbon.Calculator
	history    domain.HistoryStore
	publisher  EventPublisher
	now        func() time.Time
}

// NewOrchestrator builds an Orchestrator. The oracle and publisher may be
// nil; a nil oracle sends every sentence straight to the fallback path.
func NewOrchestrator(oracle Oracle, classifier *Classifier, calculator *carbon.Calculator, history domain.HistoryStore, publisher EventPublisher) *Orchestrator {
	return &Orchestrator{
		oracle:     oracle,
		classifier: classifier,
		calculator: calculator,
		history:    history,
		publisher:  publisher,
		now:        time.Now,
	}
}

// ProcessText segments input text and converts each sentence into an
// activity record. A batch where every sentence fails is still a valid
// result, not an error.
func (o *Orchestrator) ProcessText(ctx context.Context, inputText, username string) domain.BatchResult {
	defer observability.RecordBatchProcessed()

	batchTime := o.now().UTC()
	groupID := "batch_" + uuid.NewString()

	var result domain.BatchResult
	for _, sentence := range SegmentSentences(inputText) {
		record, failure := o.processSentence(ctx, sentence, username, batchTime, groupID)
		if failure != "" {
			result.FailedSentences = append(result.FailedSentences, sentence+" ("+failure+")")
			observability.RecordSentenceFailed(failure)
			continue
		}
		result.Records = append(result.Records, record)
		result.TotalCO2e += record.CO2e
		observability.RecordSentenceResolved()
	}

	result.TotalCO2e = math.Round(result.TotalCO2e*100) / 100
	return result
}

// processSentence runs one sentence through oracle extraction, validation,
// fallback, resolution, and persistence. A non-empty failure reason means no
// record was produced.
func (o *Orchestrator) processSentence(ctx context.Context, sentence, username string, batchTime time.Time, groupID string) (domain.ActivityRecord, string) {
	activityType, key, quantity, unit := o.extract(ctx, sentence, username)

	if activityType == domain.ActivityUnknown || key == "" {
		return domain.ActivityRecord{}, reasonNotRecognized
	}

	co2e, verified := o.calculator.Calculate(ctx, key, quantity, unit, username)

	record := domain.ActivityRecord{
		ID:            uuid.NewString(),
		Username:      username,
		InputText:     sentence,
		ActivityType:  activityType,
		Key:           key,
		Quantity:      quantity,
		Unit:          unit,
		CO2e:          co2e,
		IsVerified:    verified,
		Timestamp:     batchTime.Unix(),
		DateReadable:  batchTime.Format("2006-01-02 15:04:05"),
		SourceGroupID: groupID,
	}

	// A resolved sentence is persisted even if the caller disconnects
	// mid-batch; only new sentences stop being processed.
	persistCtx := context.WithoutCancel(ctx)
	if err := o.history.SaveRecord(persistCtx, record); err != nil {
		log.Printf("history save failed for %q: %v", sentence, err)
		return domain.ActivityRecord{}, reasonSaveFailed
	}
	observability.RecordPersisted(batchTime)

	if o.publisher != nil {
		if err := o.publisher.ActivityLogged(persistCtx, record); err != nil {
			log.Printf("event publish failed for record %s: %v", record.ID, err)
		}
	}

	return record, ""
}

// extract obtains (category, key, quantity, unit) for a sentence, trusting
// the oracle only where its answer validates and falling back to the
// deterministic classifier otherwise.
func (o *Orchestrator) extract(ctx context.Context, sentence, username string) (domain.ActivityType, string, float64, string) {
	guess := o.askOracle(ctx, sentence, username)

	if guess != nil {
		activityType := oracleCategory(guess)
		key := ""
		if guess.Key != nil {
			key = strings.TrimSpace(*guess.Key)
		}

		if activityType != domain.ActivityUnknown && key != "" {
			quantity := 0.0
			if guess.Quantity != nil {
				quantity = float64(*guess.Quantity)
			}
			if quantity <= 0 {
				quantity = ExtractQuantity(sentence)
			}
			unit := ""
			if guess.Unit != nil {
				unit = strings.TrimSpace(*guess.Unit)
			}
			if unit == "" {
				unit = activityType.DefaultUnit()
			}
			return activityType, key, quantity, unit
		}
	}

	// Oracle absent or unusable: the deterministic path decides everything.
	observability.RecordOracleFallback()
	classification := o.classifier.Classify(ctx, sentence)
	return classification.Type, classification.Key, classification.Quantity, classification.Unit
}

// askOracle calls the oracle with a bounded timeout. Unreachable, timed out,
// and malformed all collapse to nil.
func (o *Orchestrator) askOracle(ctx context.Context, sentence, username string) *OracleResult {
	if o.oracle == nil {
		return nil
	}
	result, err := o.oracle.Analyze(ctx, sentence, username)
	if err != nil {
		log.Printf("oracle unavailable, using fallback: %v", err)
		return nil
	}
	return result
}

func oracleCategory(guess *OracleResult) domain.ActivityType {
	if guess.ActivityType == nil {
		return domain.ActivityUnknown
	}
	switch strings.ToUpper(strings.TrimSpace(*guess.ActivityType)) {
	case string(domain.ActivityTransport):
		return domain.ActivityTransport
	case string(domain.ActivityFood):
		return domain.ActivityFood
	case string(domain.ActivityEnergy):
		return domain.ActivityEnergy
	default:
		return domain.ActivityUnknown
	}
}
