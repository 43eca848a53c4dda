package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polcoord/internal/domain"
)

const sampleYAML = `
server:
  port: "9090"
db:
  path: data/respondents.csv
questions:
  - question: "Рынок должен регулироваться государством"
    axis: x-
  - question: "Традиции важнее перемен"
    axis: z-
options:
  "Полностью согласен": 2
  "Согласен": 1
  "Не согласен": -1
  "Полностью не согласен": -2
sexes: ["м", "ж"]
courses: ["1", "2", "3", "4"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadKeepsOptionOrder(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	q := cfg.BuildQuestionnaire()
	assert.Equal(t, []string{"Полностью согласен", "Согласен", "Не согласен", "Полностью не согласен"}, q.Options.Labels())
	w, ok := q.Options.Weight("Не согласен")
	assert.True(t, ok)
	assert.Equal(t, -1.0, w)
	assert.Len(t, q.Questions, 2)
	assert.Equal(t, domain.AxisZMinus, q.Questions[1].Axis)
	assert.Equal(t, SourceConfig, cfg.Questionnaire.Source)
	assert.Equal(t, "default", q.ID)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POLCOORD_DB_PATH", "/tmp/other.csv")
	t.Setenv("POLCOORD_REDIS_ADDR", "localhost:6380")
	t.Setenv("PORT", "7000")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.csv", cfg.DB.Path)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestValidateRejectsUnknownAxis(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
db: {path: a.csv}
questions:
  - {question: "?", axis: w+}
options: {"A": 1}
`))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), domain.ErrUnknownAxis)
}

func TestValidateRequiresOptionsAndPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, `db: {path: a.csv}`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg, err = Load(writeConfig(t, `options: {"A": 1}`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresQuestionsForConfigSource(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
db: {path: a.csv}
options: {"A": 1}
`))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), domain.ErrNoQuestions)

	cfg, err = Load(writeConfig(t, `
db: {path: a.csv}
questionnaire: {source: postgres}
postgres: {url: "postgres://localhost/polcoord"}
`))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestOptionsMustBeMapping(t *testing.T) {
	_, err := Load(writeConfig(t, `options: ["A", "B"]`))
	assert.Error(t, err)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, 5*time.Second, TTLDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("garbage", time.Minute))
}
