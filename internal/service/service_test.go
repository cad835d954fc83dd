package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/database"
	"github.com/yockii/slide_stream/pkg/slideparser"
	"github.com/yockii/slide_stream/pkg/util"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, util.InitNode(1))
	dsn := fmt.Sprintf("file:%s?mode=memory", strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, database.InitWithDialector(sqlite.Open(dsn), gormlogger.Silent))
	sqlDB, err := database.GetDB().DB()
	require.NoError(t, err)
	// 内存库只存在于单个连接中
	sqlDB.SetMaxOpenConns(1)
	config.Set("database.type", "sqlite")
	require.NoError(t, model.AutoMigrate(database.GetDB()))
	t.Cleanup(func() { _ = database.Close() })
}

func TestPresentationService_CRUD(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	srv := NewPresentationService(NewDBIdentityStore(database.GetDB()))

	assert.ErrorIs(t, srv.Create(ctx, &model.Presentation{}), constant.ErrInvalidParams)

	p := &model.Presentation{Title: "Go at scale", Outline: []string{"# Intro", "# Wrap"}, Language: "en"}
	require.NoError(t, srv.Create(ctx, p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, constant.PresentationStatusDraft, p.Status)

	got, err := srv.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"# Intro", "# Wrap"}, got.Outline)

	require.NoError(t, srv.Update(ctx, &model.Presentation{BaseModel: model.BaseModel{ID: p.ID}, Theme: "dark"}))
	got, err = srv.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, "Go at scale", got.Title)

	list, total, err := srv.List(ctx, &model.Presentation{Title: "scale"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)

	_, err = srv.Get(ctx, 42)
	assert.ErrorIs(t, err, constant.ErrRecordNotFound)
	assert.ErrorIs(t, srv.Update(ctx, &model.Presentation{}), constant.ErrRecordIDEmpty)
}

func TestPresentationService_SaveContentRoundTrip(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	srv := NewPresentationService(NewDBIdentityStore(database.GetDB()))

	p := &model.Presentation{Title: "Doc"}
	require.NoError(t, srv.Create(ctx, p))

	doc := slideparser.ParseDocument(`<PRESENTATION><SECTION page_number="1"><H1>Hi</H1><BULLETS><DIV><P>a <B>b</B></P></DIV></BULLETS></SECTION></PRESENTATION>`)
	require.Len(t, doc, 1)
	require.NoError(t, srv.SaveContent(ctx, p.ID, doc, constant.PresentationStatusCompleted, "run-1"))

	got, err := srv.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got.Content)
	assert.Equal(t, 1, got.SlideCount)
	assert.Equal(t, constant.PresentationStatusCompleted, got.Status)
	assert.Equal(t, "run-1", got.LastRunID)

	// 列表不带正文
	list, _, err := srv.List(ctx, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Content)

	// 空文档也会覆盖
	require.NoError(t, srv.SaveContent(ctx, p.ID, nil, constant.PresentationStatusFailed, "run-2"))
	got, err = srv.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Content)
	assert.Zero(t, got.SlideCount)

	assert.ErrorIs(t, srv.SaveContent(ctx, 999, doc, "completed", ""), constant.ErrRecordNotFound)
}

func TestPresentationService_LogsAndDelete(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	identities := NewDBIdentityStore(database.GetDB())
	srv := NewPresentationService(identities)

	p := &model.Presentation{Title: "Logs"}
	require.NoError(t, srv.Create(ctx, p))
	for i, run := range []string{"r1", "r1", "r2"} {
		require.NoError(t, srv.AppendLog(ctx, &model.GenerationLog{
			PresentationID: p.ID, RunID: run, Type: "log", Data: fmt.Sprintf("step %d", i), References: []string{"ref"},
		}))
	}
	require.NoError(t, identities.Save(ctx, p.ID, map[string]string{"ordinal-1": "abc"}))

	logs, total, err := srv.ListLogs(ctx, p.ID, "r1", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	assert.Equal(t, "step 0", logs[0].Data)
	assert.Equal(t, []string{"ref"}, logs[0].References)

	// 生成中的演示文稿不能删除
	require.NoError(t, srv.UpdateStatus(ctx, p.ID, constant.PresentationStatusGenerating, ""))
	assert.ErrorIs(t, srv.Delete(ctx, p.ID), constant.ErrGenerationRunning)

	require.NoError(t, srv.UpdateStatus(ctx, p.ID, constant.PresentationStatusCompleted, ""))
	require.NoError(t, srv.Delete(ctx, p.ID))

	_, total, err = srv.ListLogs(ctx, p.ID, "", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	entries, err := identities.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDBIdentityStore(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	store := NewDBIdentityStore(database.GetDB())

	entries, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Save(ctx, 1, map[string]string{"ordinal-1": "a", "heading-Intro": "b"}))
	require.NoError(t, store.Save(ctx, 2, map[string]string{"ordinal-1": "z"}))
	require.NoError(t, store.Save(ctx, 1, map[string]string{"ordinal-1": "a", "ordinal-2": "c"}))

	entries, err = store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ordinal-1": "a", "ordinal-2": "c"}, entries)

	require.NoError(t, store.Delete(ctx, 1))
	entries, err = store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = store.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "z", entries["ordinal-1"])
}

func TestParserDialectFromConfig(t *testing.T) {
	config.Set("parser.dialect.unit_tag", "slide")
	config.Set("parser.dialect.ordinal_attr", "n")
	t.Cleanup(func() {
		config.Set("parser.dialect.unit_tag", "")
		config.Set("parser.dialect.ordinal_attr", "")
	})

	d := ParserDialect()
	assert.Equal(t, "slide", d.UnitTag)
	assert.Equal(t, "n", d.OrdinalAttr)
	assert.Equal(t, "PRESENTATION", d.WrapperTag)

	p := NewParser()
	p.Feed(`<SLIDE n="4"><H1>Four</H1></SLIDE>`)
	p.Finalize()
	require.Len(t, p.GetAllSlides(), 1)
	_, ok := p.Registry().Lookup("ordinal-4")
	assert.True(t, ok)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(&GenerateRequest{
		Title:    "Rust vs Go",
		Outline:  []string{"# Memory\n- ownership", "# Concurrency"},
		Language: "English",
	}, slideparser.DefaultDialect())

	assert.Contains(t, prompt, "- Title: Rust vs Go")
	assert.Contains(t, prompt, "1. # Memory - ownership")
	assert.Contains(t, prompt, "2. # Concurrency")
	assert.Contains(t, prompt, "- Total Slides: 2")
	assert.Contains(t, prompt, "<PRESENTATION>")
	assert.Contains(t, prompt, "'page_number'")
	assert.Contains(t, prompt, "Tone for images: professional")
}
