package store

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/academiq/campus-board/internal/database"
	"github.com/academiq/campus-board/internal/models"
)

var testDSN string

// TestMain provisions one postgres container shared by every test in the
// package; setupTestDB resets its tables between tests.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("campusboard_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}

	testDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("terminate container: %v", err)
	}
	os.Exit(code)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed store tests in short mode")
	}

	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	if _, err := database.Wrap(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	err = db.Exec("TRUNCATE votes, bookmarks, posts, users RESTART IDENTITY CASCADE").Error
	if err != nil {
		t.Fatalf("reset tables: %v", err)
	}

	return db
}

func seedPost(t *testing.T, db *gorm.DB) int {
	t.Helper()
	user := models.User{Username: "faculty", Email: "faculty@test.com", Role: "FACULTY"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	post := models.Post{
		Title:      "Introduction to Programming",
		Body:       "Learn the basics of programming",
		CourseCode: "CSE101",
		Topics:     []string{"programming", "basics"},
		UserID:     user.ID,
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post.ID
}

func TestVoteToggleSymmetry(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	votes := NewVotes(db)
	ctx := context.Background()

	counts, err := votes.Cast(ctx, 1, postID, models.Upvote)
	if err != nil {
		t.Fatalf("first cast: %v", err)
	}
	if counts.Upvotes != 1 || counts.Downvotes != 0 {
		t.Fatalf("after first cast: %+v", counts)
	}

	// same value again retracts and returns to baseline
	counts, err = votes.Cast(ctx, 1, postID, models.Upvote)
	if err != nil {
		t.Fatalf("second cast: %v", err)
	}
	if counts.Upvotes != 0 || counts.Downvotes != 0 {
		t.Fatalf("after retract: %+v", counts)
	}

	status, err := votes.Read(ctx, 1, postID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if status.UserVote != 0 {
		t.Fatalf("vote row should be gone, got %+v", status)
	}

	var rows int64
	db.Model(&models.Vote{}).Where("post_id = ?", postID).Count(&rows)
	if rows != 0 {
		t.Fatalf("retraction must delete the row, found %d", rows)
	}
}

func TestVoteSwitchDirection(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	votes := NewVotes(db)
	ctx := context.Background()

	if _, err := votes.Cast(ctx, 1, postID, models.Upvote); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	counts, err := votes.Cast(ctx, 1, postID, models.Downvote)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if counts.Upvotes != 0 || counts.Downvotes != 1 {
		t.Fatalf("after switch: %+v", counts)
	}

	status, err := votes.Read(ctx, 1, postID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if status.UserVote != models.Downvote {
		t.Fatalf("vote should have switched in place: %+v", status)
	}

	// switching updates the single row, never accumulates a second one
	var rows int64
	db.Model(&models.Vote{}).Where("user_id = ? AND post_id = ?", 1, postID).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected one vote row, found %d", rows)
	}
}

func TestVoteConcurrentUsersNoLostUpdate(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	votes := NewVotes(db)
	ctx := context.Background()

	const voters = 10
	var wg sync.WaitGroup
	for i := 1; i <= voters; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			value := models.Upvote
			if userID%2 == 0 {
				value = models.Downvote
			}
			if _, err := votes.Cast(ctx, userID, postID, value); err != nil {
				t.Errorf("user %d cast: %v", userID, err)
			}
		}(i)
	}
	wg.Wait()

	status, err := votes.Read(ctx, 0, postID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if status.Upvotes+status.Downvotes != voters {
		t.Fatalf("lost update: %d up + %d down != %d voters",
			status.Upvotes, status.Downvotes, voters)
	}
	if status.Upvotes != 5 || status.Downvotes != 5 {
		t.Fatalf("unexpected split: %+v", status)
	}
}

func TestVoteReadNeverTearsAggregates(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	votes := NewVotes(db)
	ctx := context.Background()

	// one voter flips direction repeatedly; every concurrent read must see
	// the row in exactly one column, never both
	done := make(chan struct{})
	var writeErr error
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			value := models.Upvote
			if i%2 == 1 {
				value = models.Downvote
			}
			if _, err := votes.Cast(ctx, 1, postID, value); err != nil {
				writeErr = err
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			if writeErr != nil {
				t.Fatalf("writer: %v", writeErr)
			}
			return
		default:
		}
		status, err := votes.Read(ctx, 0, postID)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if status.Upvotes+status.Downvotes > 1 {
			t.Fatalf("torn read: %d up + %d down from a single voter",
				status.Upvotes, status.Downvotes)
		}
	}
}

func TestVoteErrors(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	votes := NewVotes(db)
	ctx := context.Background()

	if _, err := votes.Cast(ctx, 1, postID, 0); !errors.Is(err, ErrInvalidVoteValue) {
		t.Fatalf("value 0: got %v", err)
	}
	if _, err := votes.Cast(ctx, 1, 99999, models.Upvote); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("missing post cast: got %v", err)
	}
	if _, err := votes.Read(ctx, 1, 99999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("missing post read: got %v", err)
	}
}

func TestVoteReadAnonymous(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	votes := NewVotes(db)
	ctx := context.Background()

	if _, err := votes.Cast(ctx, 1, postID, models.Upvote); err != nil {
		t.Fatalf("cast: %v", err)
	}

	status, err := votes.Read(ctx, 0, postID)
	if err != nil {
		t.Fatalf("anonymous read: %v", err)
	}
	if status.UserVote != 0 || status.Upvotes != 1 {
		t.Fatalf("anonymous read should see totals with no own vote: %+v", status)
	}
}

func TestBookmarkToggleParity(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	bookmarks := NewBookmarks(db)
	ctx := context.Background()

	on, err := bookmarks.Toggle(ctx, 1, postID)
	if err != nil || !on {
		t.Fatalf("toggle on: %v %v", on, err)
	}
	saved, err := bookmarks.Status(ctx, 1, postID)
	if err != nil || !saved {
		t.Fatalf("status after on: %v %v", saved, err)
	}

	off, err := bookmarks.Toggle(ctx, 1, postID)
	if err != nil || off {
		t.Fatalf("toggle off: %v %v", off, err)
	}
	saved, err = bookmarks.Status(ctx, 1, postID)
	if err != nil || saved {
		t.Fatalf("status after off: %v %v", saved, err)
	}

	// an even number of toggles leaves no row behind
	var rows int64
	db.Model(&models.Bookmark{}).Where("post_id = ?", postID).Count(&rows)
	if rows != 0 {
		t.Fatalf("expected no bookmark rows, found %d", rows)
	}
}

func TestBookmarkListForUser(t *testing.T) {
	db := setupTestDB(t)
	postID := seedPost(t, db)
	bookmarks := NewBookmarks(db)
	ctx := context.Background()

	if _, err := bookmarks.Toggle(ctx, 1, postID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	posts, err := bookmarks.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != postID {
		t.Fatalf("bad list: %+v", posts)
	}

	// other users see their own empty list
	posts, err = bookmarks.ListForUser(ctx, 2)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("user 2 should have no saved posts: %+v", posts)
	}
}

func TestBookmarkMissingPost(t *testing.T) {
	db := setupTestDB(t)
	seedPost(t, db)
	bookmarks := NewBookmarks(db)
	ctx := context.Background()

	if _, err := bookmarks.Toggle(ctx, 1, 99999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("missing post toggle: got %v", err)
	}
	if _, err := bookmarks.Status(ctx, 1, 99999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("missing post status: got %v", err)
	}
}
