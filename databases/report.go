package databases

// go generate: mockery --name ReportDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/civic-report-api/models"
)

const reportName = "reports"

// ReportDatabase contains the methods to use with the report database
type ReportDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Report, error)
	FindOne(ctx context.Context, filter interface{}) (*models.Report, error)
	InsertOne(ctx context.Context, report models.Report) error
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Report, error)
	FindOneAndDelete(ctx context.Context, filter interface{}) (*models.Report, error)
	EnsureIndexes(ctx context.Context) error
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

func (c *reportDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Report, error) {
	cursor, err := c.db.Collection(reportName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err = cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *reportDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Report, error) {
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOne(ctx, filter).Decode(&report)
	if err != nil {
		return nil, translateError(err)
	}
	return report, nil
}

func (c *reportDatabase) InsertOne(ctx context.Context, report models.Report) error {
	_, err := c.db.Collection(reportName).InsertOne(ctx, report)
	return translateError(err)
}

// FindOneAndUpdate applies update and returns the document as it is after the update
func (c *reportDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Report, error) {
	report := &models.Report{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.db.Collection(reportName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&report)
	if err != nil {
		return nil, translateError(err)
	}
	return report, nil
}

// FindOneAndDelete removes the matching document and returns it as it was
func (c *reportDatabase) FindOneAndDelete(ctx context.Context, filter interface{}) (*models.Report, error) {
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOneAndDelete(ctx, filter).Decode(&report)
	if err != nil {
		return nil, translateError(err)
	}
	return report, nil
}

// EnsureIndexes creates the index backing the newest-first listing
func (c *reportDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(reportName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reportedAt", Value: -1}}},
	})
}
