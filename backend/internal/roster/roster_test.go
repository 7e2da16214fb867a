package roster

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/shared"
)

func TestFormatName(t *testing.T) {
	cases := []struct {
		nombres, apellidos, want string
	}{
		{"MARIA JOSE", "PEREZ GOMEZ", "Maria Perez"},
		{"ana", "de la cruz", "Ana De"},
		{"  josé  luis ", "ávila", "José Ávila"},
		{"Pedro", "", "Pedro"},
		{"", "", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatName(tc.nombres, tc.apellidos), "%q %q", tc.nombres, tc.apellidos)
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "MP", Initials("maria jose", "perez"))
	assert.Equal(t, "ÉÁ", Initials("érica", "ávila"))
	assert.Equal(t, "P", Initials("Pedro", ""))
	assert.Equal(t, "", Initials(" ", ""))
}

type stubFinder struct {
	records []Record
	err     error
	got     Query
}

func (s *stubFinder) Find(_ context.Context, q Query) ([]Record, error) {
	s.got = q
	return s.records, s.err
}

func TestSourceLoadRoster(t *testing.T) {
	t.Run("maps records to entries in order", func(t *testing.T) {
		finder := &stubFinder{records: []Record{
			{ID: "1", FirstNames: "LUIS ALBERTO", LastNames: "ROJAS"},
			{ID: "2", FirstNames: "carla", LastNames: "suarez mejia"},
		}}
		src := NewSource(finder, zerolog.Nop())

		entries := src.LoadRoster(context.Background(), Query{GradeLevel: 10, Section: "A"})

		assert.Equal(t, Query{GradeLevel: 10, Section: "A"}, finder.got)
		assert.Equal(t, []gradebook.RosterEntry{
			{ID: "1", Name: "Luis Rojas"},
			{ID: "2", Name: "Carla Suarez"},
		}, entries)
	})

	t.Run("failure yields an empty roster", func(t *testing.T) {
		src := NewSource(&stubFinder{err: errors.New("connection refused")}, zerolog.Nop())

		entries := src.LoadRoster(context.Background(), Query{GradeLevel: 3})

		require.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB integration test")
	}

	client, db, err := shared.ConnectMongoDB(shared.DefaultMongoConfig(uri, "portal_roster_test"))
	require.NoError(t, err)
	defer func() {
		_ = db.Drop(context.Background())
		_ = shared.DisconnectMongoDB(client)
	}()

	ctx := context.Background()
	col := db.Collection("2025-2026")
	oid := primitive.NewObjectID()
	_, err = col.InsertMany(ctx, []interface{}{
		bson.M{"_id": oid, "estudiante_nombres": "ZOE", "estudiante_apellidos": "ZAMORA", "estudiante_grado": 10, "estudiante_seccion": "A"},
		bson.M{"_id": "legacy-1", "estudiante_nombres": "ADRIAN", "estudiante_apellidos": "ALVAREZ", "estudiante_grado": "10", "estudiante_seccion": "A"},
		bson.M{"estudiante_nombres": "BRUNO", "estudiante_apellidos": "BLANCO", "estudiante_grado": 10, "estudiante_seccion": "B"},
		bson.M{"estudiante_nombres": "CARMEN", "estudiante_apellidos": "CASTRO", "estudiante_grado": 3, "estudiante_seccion": "U"},
	})
	require.NoError(t, err)

	var logs bytes.Buffer
	store := NewMongoStore(db, "2025-2026", zerolog.New(&logs))

	t.Run("filters by grade and section, sorted by surname", func(t *testing.T) {
		records, err := store.Find(ctx, Query{GradeLevel: 10, Section: "A"})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "legacy-1", records[0].ID)
		assert.Equal(t, oid.Hex(), records[1].ID)
		assert.Equal(t, shared.GradeLevel(10), records[0].GradeLevel)
	})

	t.Run("empty section matches the whole grade", func(t *testing.T) {
		records, err := store.Find(ctx, Query{GradeLevel: 10})
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("malformed documents are logged and skipped", func(t *testing.T) {
		_, err := col.InsertOne(ctx, bson.M{"_id": "broken-1", "estudiante_nombres": 42, "estudiante_apellidos": "ROTO", "estudiante_grado": 11, "estudiante_seccion": "A"})
		require.NoError(t, err)
		_, err = col.InsertOne(ctx, bson.M{"estudiante_nombres": "DANIEL", "estudiante_apellidos": "DIAZ", "estudiante_grado": 11, "estudiante_seccion": "A"})
		require.NoError(t, err)

		records, err := store.Find(ctx, Query{GradeLevel: 11, Section: "A"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "DANIEL", records[0].FirstNames)
		assert.Contains(t, logs.String(), "skipping malformed student document")
		assert.Contains(t, logs.String(), "broken-1")
	})

	t.Run("update profile by object id", func(t *testing.T) {
		updated, err := store.UpdateProfile(ctx, oid.Hex(), Profile{ContactEmail: "zoe@example.com", ParentName: "Marta"})
		require.NoError(t, err)
		assert.Equal(t, "zoe@example.com", updated.ContactEmail)
		assert.Equal(t, "Marta", updated.ParentName)
	})

	t.Run("update profile by string id", func(t *testing.T) {
		updated, err := store.UpdateProfile(ctx, "legacy-1", Profile{ParentPhone: "555-0101"})
		require.NoError(t, err)
		assert.Equal(t, "555-0101", updated.ParentPhone)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := store.UpdateProfile(ctx, primitive.NewObjectID().Hex(), Profile{})
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = store.UpdateProfile(ctx, "", Profile{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}
