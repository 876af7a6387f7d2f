package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"clientzap/internal/model"
	"clientzap/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrContractsNotAllowed is returned when the user's plan does not include
// saved contracts.
var ErrContractsNotAllowed = errors.New("saved contracts require the pro plan")

// ContractService renders contract documents, stores them in object storage
// and keeps a record per user.
type ContractService interface {
	GenerateContract(ctx context.Context, userID, title, clientName, body string) (*model.Contract, string, error)
	ListContracts(ctx context.Context, userID string) ([]model.Contract, error)
	GetDownloadURL(ctx context.Context, storagePath string) (string, error)
}

type contractService struct {
	repo          repository.ContractRepository
	userRepo      repository.UserRepository
	entitlements  *EntitlementService
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	logger        zerolog.Logger
}

// NewContractService creates a new ContractService.
func NewContractService(
	repo repository.ContractRepository,
	userRepo repository.UserRepository,
	entitlements *EntitlementService,
	s3Client *s3.Client,
	bucketName string,
	logger zerolog.Logger,
) ContractService {
	return &contractService{
		repo:          repo,
		userRepo:      userRepo,
		entitlements:  entitlements,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		logger:        logger.With().Str("service", "ContractService").Logger(),
	}
}

// GenerateContract renders a PDF, uploads it and records the contract.
// Returns the contract and a presigned download URL.
func (s *contractService) GenerateContract(ctx context.Context, userID, title, clientName, body string) (*model.Contract, string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, "", fmt.Errorf("user not found: %s", userID)
	}
	if !s.entitlements.Evaluate(user).SavedContracts {
		return nil, "", ErrContractsNotAllowed
	}

	pdfBytes, err := renderContractPDF(title, clientName, body)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to render contract PDF")
		return nil, "", fmt.Errorf("render contract: %w", err)
	}

	contract := &model.Contract{
		ContractID:  uuid.NewString(),
		UserID:      userID,
		Title:       title,
		ClientName:  clientName,
		StoragePath: fmt.Sprintf("contracts/%s/%s.pdf", userID, uuid.NewString()),
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(contract.StoragePath),
		Body:        bytes.NewReader(pdfBytes),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", contract.StoragePath).Msg("Failed to upload contract PDF")
		return nil, "", fmt.Errorf("upload contract: %w", err)
	}

	if err := s.repo.CreateContract(ctx, contract); err != nil {
		return nil, "", err
	}

	url, err := s.GetDownloadURL(ctx, contract.StoragePath)
	if err != nil {
		return nil, "", err
	}
	return contract, url, nil
}

func (s *contractService) ListContracts(ctx context.Context, userID string) ([]model.Contract, error) {
	return s.repo.ListContractsByUser(ctx, userID)
}

// GetDownloadURL returns a presigned GET URL for a stored contract.
func (s *contractService) GetDownloadURL(ctx context.Context, storagePath string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", storagePath).Msg("Failed to presign contract download URL")
		return "", fmt.Errorf("presign download url: %w", err)
	}
	return req.URL, nil
}

// renderContractPDF produces a deliberately plain document: a title, the
// client name, the agreement body and a signature line.
func renderContractPDF(title, clientName, body string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	if clientName != "" {
		pdf.CellFormat(0, 6, "Prepared for: "+clientName, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	pdf.MultiCell(0, 5, body, "", "L", false)
	pdf.Ln(12)
	pdf.CellFormat(0, 6, "Signature: ______________________     Date: ____________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
