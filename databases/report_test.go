package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/databases/mocks"
	"github.com/linesmerrill/civic-report-api/models"
)

func TestReportDatabase_Find(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	sortOpts := options.Find().SetSort(bson.D{{Key: "reportedAt", Value: -1}})

	cursorHelper.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Report)
		*arg = []models.Report{{Location: "Main St"}, {Location: "Elm St"}}
	})
	collectionHelper.On("Find", context.Background(), bson.M{}, sortOpts).Return(cursorHelper, nil)
	collectionHelper.On("Find", context.Background(), bson.M{"error": true}).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	reports, err := reportDba.Find(context.Background(), bson.M{"error": true})
	assert.Nil(t, reports)
	assert.EqualError(t, err, "mocked-error")

	reports, err = reportDba.Find(context.Background(), bson.M{}, sortOpts)
	assert.NoError(t, err)
	assert.Equal(t, []models.Report{{Location: "Main St"}, {Location: "Elm St"}}, reports)
}

func TestReportDatabase_FindOneAndUpdate(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srMissing := &mocks.SingleResultHelper{}
	srCorrect := &mocks.SingleResultHelper{}

	missingID := primitive.NewObjectID()
	foundID := primitive.NewObjectID()

	srMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srCorrect.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ID = foundID
		(*arg).Status = models.StatusInProgress
	})

	returnAfter := mock.MatchedBy(func(o *options.FindOneAndUpdateOptions) bool {
		return o.ReturnDocument != nil && *o.ReturnDocument == options.After
	})
	collectionHelper.On("FindOneAndUpdate", context.Background(), bson.M{"_id": missingID}, mock.Anything, returnAfter).Return(srMissing)
	collectionHelper.On("FindOneAndUpdate", context.Background(), bson.M{"_id": foundID}, mock.Anything, returnAfter).Return(srCorrect)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	report, err := reportDba.FindOneAndUpdate(context.Background(), bson.M{"_id": missingID}, bson.M{})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, databases.ErrNotFound)

	report, err = reportDba.FindOneAndUpdate(context.Background(), bson.M{"_id": foundID}, bson.M{})
	assert.NoError(t, err)
	assert.Equal(t, foundID, report.ID)
	assert.Equal(t, models.StatusInProgress, report.Status)
}

func TestReportDatabase_FindOneAndDelete(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srMissing := &mocks.SingleResultHelper{}
	srCorrect := &mocks.SingleResultHelper{}

	srMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srCorrect.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ImageFilename = "1700000000000-42-pothole.jpg"
	})

	collectionHelper.On("FindOneAndDelete", context.Background(), bson.M{"missing": true}).Return(srMissing)
	collectionHelper.On("FindOneAndDelete", context.Background(), bson.M{"missing": false}).Return(srCorrect)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	report, err := reportDba.FindOneAndDelete(context.Background(), bson.M{"missing": true})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, databases.ErrNotFound)

	report, err = reportDba.FindOneAndDelete(context.Background(), bson.M{"missing": false})
	assert.NoError(t, err)
	assert.Equal(t, "1700000000000-42-pothole.jpg", report.ImageFilename)
}

func TestReportDatabase_InsertOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("InsertOne", context.Background(), mock.AnythingOfType("models.Report")).Return(nil, errors.New("mocked-error")).Once()
	collectionHelper.On("InsertOne", context.Background(), mock.AnythingOfType("models.Report")).Return(&mocks.InsertOneResultHelper{}, nil).Once()
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	assert.EqualError(t, reportDba.InsertOne(context.Background(), models.Report{}), "mocked-error")
	assert.NoError(t, reportDba.InsertOne(context.Background(), models.Report{}))
}

func TestIDFilter(t *testing.T) {
	_, err := databases.IDFilter("X")
	assert.ErrorIs(t, err, databases.ErrNotFound)

	id := primitive.NewObjectID()
	filter, err := databases.IDFilter(id.Hex())
	assert.NoError(t, err)
	assert.Equal(t, bson.M{"_id": id}, filter)
}
