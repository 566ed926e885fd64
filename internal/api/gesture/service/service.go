package gestureService

import (
	"context"

	"ProjectGesture/internal/api/gesture"
	gestureRepository "ProjectGesture/internal/api/gesture/repository"
	"ProjectGesture/internal/entity"
	"ProjectGesture/pkg/inference"
	"ProjectGesture/pkg/intention"
	"ProjectGesture/pkg/preprocessor"
	"ProjectGesture/pkg/s3"
	"ProjectGesture/pkg/searchable"
	"ProjectGesture/pkg/speech"
	"ProjectGesture/pkg/utils"

	"github.com/sirupsen/logrus"
)

type IGestureService interface {
	ProcessGesture(ctx context.Context, userID string, gestureType string, rawData map[string]interface{}) (entity.GestureRecord, error)
	GetGestureHistory(ctx context.Context, userID string, page, limit int) (*gesture.GestureHistoryResponse, error)
	GetGestureByID(ctx context.Context, userID string, gestureID string) (*gesture.GestureResponse, error)
	DeleteGesture(ctx context.Context, userID string, gestureID string) error
	SearchGestures(ctx context.Context, userID string, query string, limit int) (*gesture.SearchResponse, error)
	GetIntentions() *gesture.IntentionsResponse
	RegisterIntention(req gesture.RegisterIntentionRequest)
}

type gestureService struct {
	log          *logrus.Logger
	gestureRepo  gestureRepository.Repository
	preprocessor preprocessor.IPreprocessor
	classifier   inference.IClassifier
	mapper       intention.IMapper
	synthesizer  speech.ISynthesizer
	searchable   searchable.ISearchable
	s3Client     s3.ItfS3
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	gestureRepo gestureRepository.Repository,
	pre preprocessor.IPreprocessor,
	classifier inference.IClassifier,
	mapper intention.IMapper,
	synthesizer speech.ISynthesizer,
	search searchable.ISearchable,
	s3Client s3.ItfS3,
	utils utils.IUtils,
) IGestureService {
	return &gestureService{
		log:          log,
		gestureRepo:  gestureRepo,
		preprocessor: pre,
		classifier:   classifier,
		mapper:       mapper,
		synthesizer:  synthesizer,
		searchable:   search,
		s3Client:     s3Client,
		utils:        utils,
	}
}
