package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"polcoord/internal/domain"
	"polcoord/internal/infra/memory"
)

// QuestionnaireRepository caches questionnaires in Redis as JSON and falls back
// to a loader on cache miss:
//
//	SET polcoord:questionnaire:{id} <json> EX <ttl>
//
// A corrupt or unreachable cache is treated as a miss.
type QuestionnaireRepository struct {
	client *redis.Client
	loader memory.QuestionnaireLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionnaireRepository(client *redis.Client, loader memory.QuestionnaireLoader, ttl time.Duration) *QuestionnaireRepository {
	return &QuestionnaireRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionnaireRepository) GetQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error) {
	if q, ok := r.cached(ctx, id); ok {
		return q, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := r.cached(ctx, id); ok {
			return q, nil
		}

		q, err := r.loader.LoadQuestionnaire(ctx, id)
		if err != nil {
			return domain.Questionnaire{}, err
		}
		if payload, err := json.Marshal(q); err == nil {
			_ = r.client.Set(ctx, Key(id), payload, r.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.Questionnaire{}, err
	}
	return result.(domain.Questionnaire), nil
}

// Invalidate drops the cached copy so the next read goes to the loader.
func (r *QuestionnaireRepository) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, Key(id)).Err()
}

func (r *QuestionnaireRepository) cached(ctx context.Context, id string) (domain.Questionnaire, bool) {
	payload, err := r.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		return domain.Questionnaire{}, false
	}
	var q domain.Questionnaire
	if err := json.Unmarshal(payload, &q); err != nil {
		return domain.Questionnaire{}, false
	}
	return q, true
}

// Key is the cache key of a questionnaire.
func Key(id string) string {
	return "polcoord:questionnaire:" + id
}

func (r *QuestionnaireRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
