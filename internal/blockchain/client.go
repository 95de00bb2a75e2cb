package blockchain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperledger/sawtooth-sdk-go/protobuf/transaction_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

const (
	batchSubmitAPI         string = "batches"
	batchStatusAPI         string = "batch_statuses"
	stateAPI               string = "state"
	contentTypeOctetStream string = "application/octet-stream"

	statusCommitted = "COMMITTED"
	statusInvalid   = "INVALID"
	statusPending   = "PENDING"
)

var ErrNotFound = errors.New("responded with status 404")

// TransactionError is returned when the validator rejected a submitted transaction
type TransactionError struct {
	TransactionID string
	Status        string
	Message       string
}

func (e *TransactionError) Error() string {
	if e.Message == "" {
		return "transaction " + e.TransactionID + " status: " + e.Status
	}
	return e.Message
}

// Client talks to the validator REST API
type Client struct {
	logger     *zap.Logger
	url        string
	batchWait  time.Duration
	httpClient *http.Client
}

func NewClient(logger *zap.Logger, validatorRestAPIUrl string, batchWait time.Duration) *Client {
	if !strings.HasPrefix(validatorRestAPIUrl, "http://") && !strings.HasPrefix(validatorRestAPIUrl, "https://") {
		validatorRestAPIUrl = "http://" + validatorRestAPIUrl
	}

	return &Client{
		logger:     logger,
		url:        strings.TrimSuffix(validatorRestAPIUrl, "/"),
		batchWait:  batchWait,
		httpClient: http.DefaultClient,
	}
}

// submitTransaction wraps the transaction in a batch, submits it and waits until it's committed
func (c Client) submitTransaction(ctx context.Context, transaction *transaction_pb2.Transaction, signer *signing.Signer) (transactionID string, err error) {
	transactionID = transaction.HeaderSignature

	rawBatchList, err := createBatchList(
		[]*transaction_pb2.Transaction{transaction}, signer)
	if err != nil {
		return "", errors.New(
			fmt.Sprintf("unable to construct batch list: %v", err))
	}
	batchID := rawBatchList.Batches[0].HeaderSignature
	batchList, err := proto.Marshal(rawBatchList)
	if err != nil {
		return "", errors.New(
			fmt.Sprintf("unable to serialize batch list: %v", err))
	}

	if _, err := c.sendRequest(ctx, batchSubmitAPI, batchList, contentTypeOctetStream); err != nil {
		return "", errors.New("failed to submit the batch: " + err.Error())
	}
	c.logger.Debug("batch submitted", zap.String("batchID", batchID), zap.String("transactionID", transactionID))

	deadline := time.Now().Add(c.batchWait)
	for {
		remaining := time.Until(deadline)
		if remaining < time.Second {
			remaining = time.Second
		}

		status, err := c.getStatus(ctx, batchID, remaining)
		if err != nil {
			return transactionID, err
		}

		switch status.Status {
		case statusCommitted:
			c.logger.Info("transaction committed", zap.String("transactionID", transactionID))
			return transactionID, nil
		case statusInvalid:
			txnErr := &TransactionError{TransactionID: transactionID, Status: status.Status}
			for _, invalid := range status.InvalidTransactions {
				if invalid.ID == transactionID {
					txnErr.Message = invalid.Message
				}
			}
			return transactionID, txnErr
		case statusPending:
			if time.Now().After(deadline) {
				return transactionID, &TransactionError{TransactionID: transactionID, Status: status.Status}
			}
		default:
			return transactionID, &TransactionError{TransactionID: transactionID, Status: status.Status}
		}
	}
}

type batchStatus struct {
	ID                  string `yaml:"id"`
	Status              string `yaml:"status"`
	InvalidTransactions []struct {
		ID      string `yaml:"id"`
		Message string `yaml:"message"`
	} `yaml:"invalid_transactions"`
}

func (c Client) getStatus(ctx context.Context, batchID string, wait time.Duration) (batchStatus, error) {

	// API to call
	query := url.Values{}
	query.Set("id", batchID)
	query.Set("wait", fmt.Sprint(int(wait.Seconds())))

	response, err := c.sendRequest(ctx, batchStatusAPI+"?"+query.Encode(), nil, "")
	if err != nil {
		return batchStatus{}, err
	}

	var unmarshalled struct {
		Data []batchStatus `yaml:"data"`
	}
	if err := yaml.Unmarshal(response, &unmarshalled); err != nil {
		return batchStatus{}, errors.New(fmt.Sprintf("Error reading response: %v", err))
	}
	if len(unmarshalled.Data) == 0 {
		return batchStatus{}, errors.New("empty batch status response")
	}

	return unmarshalled.Data[0], nil
}

// getState returns the data stored at the address, ErrNotFound if there is none
func (c Client) getState(ctx context.Context, address string) ([]byte, error) {
	response, err := c.sendRequest(ctx, stateAPI+"/"+address, nil, "")
	if err != nil {
		return nil, err
	}

	var unmarshalled struct {
		Data string `yaml:"data"`
	}
	if err := yaml.Unmarshal(response, &unmarshalled); err != nil {
		return nil, errors.New(fmt.Sprintf("Error reading response: %v", err))
	}

	data, err := base64.StdEncoding.DecodeString(unmarshalled.Data)
	if err != nil {
		return nil, errors.New("failed to decode the state data: " + err.Error())
	}

	return data, nil
}

func (c Client) sendRequest(
	ctx context.Context,
	apiSuffix string,
	data []byte,
	contentType string) ([]byte, error) {

	url := fmt.Sprintf("%s/%s", c.url, apiSuffix)

	method := http.MethodGet
	var body io.Reader
	if len(data) > 0 {
		method = http.MethodPost
		body = bytes.NewBuffer(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	// Send request to validator URL
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.New(
			fmt.Sprintf("Failed to connect to REST API: %v", err))
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		c.logger.Debug("not found: " + url)
		return nil, ErrNotFound
	} else if response.StatusCode >= 400 {
		return nil, errors.New(
			fmt.Sprintf("Error %d: %s", response.StatusCode, response.Status))
	}

	reponseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("Error reading response: %v", err))
	}
	return reponseBody, nil
}
