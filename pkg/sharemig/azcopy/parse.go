package azcopy

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// message is one line of azcopy's --output-type json stream. MessageContent
// is a plain string for Info/Error lines and nested JSON for Init, Progress
// and EndOfJob.
type message struct {
	TimeStamp      time.Time
	MessageType    string
	MessageContent string
}

// Message types azcopy emits.
const (
	msgInit     = "Init"
	msgInfo     = "Info"
	msgProgress = "Progress"
	msgEndOfJob = "EndOfJob"
	msgError    = "Error"
)

// initContent is the MessageContent of an Init message.
type initContent struct {
	LogFileLocation string
	JobID           string
	IsCleanupJob    bool
}

// jobSummary is the MessageContent of an EndOfJob message (and of jobs
// show). azcopy serializes the numeric fields as JSON strings.
type jobSummary struct {
	ErrorMsg              string
	JobID                 string
	JobStatus             string
	TotalTransfers        int64 `json:",string"`
	TransfersCompleted    int64 `json:",string"`
	TransfersFailed       int64 `json:",string"`
	TransfersSkipped      int64 `json:",string"`
	TotalBytesTransferred int64 `json:",string"`
}

// Parser accumulates the JSON stream of one invocation into a result. It
// also carries a text fallback for older azcopy builds whose summary is the
// human-readable block rather than an EndOfJob message.
type Parser struct {
	// JobID is taken from the Init message (or the text fallback).
	JobID string

	// NativeLog is azcopy's own log file for this job.
	NativeLog string

	// Summary is populated from the EndOfJob message when one was seen.
	Summary *jobSummary

	// Errors collects Error-type message contents.
	Errors []string

	textLines []string
}

// Feed consumes one output line. Non-JSON lines are retained for the text
// fallback; they are never an error.
func (p *Parser) Feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var m message
	if err := json.Unmarshal([]byte(line), &m); err != nil || m.MessageType == "" {
		p.textLines = append(p.textLines, line)
		return
	}

	switch m.MessageType {
	case msgInit:
		var init initContent
		if json.Unmarshal([]byte(m.MessageContent), &init) == nil && !init.IsCleanupJob {
			p.JobID = init.JobID
			p.NativeLog = init.LogFileLocation
		}
	case msgEndOfJob:
		var s jobSummary
		if json.Unmarshal([]byte(m.MessageContent), &s) == nil {
			p.Summary = &s
		}
	case msgError:
		p.Errors = append(p.Errors, m.MessageContent)
	}
}

// Text fallback patterns matching azcopy's human-readable job summary.
var (
	jobStartedPattern  = regexp.MustCompile(`Job ([0-9a-fA-F-]{36}) has started`)
	jobSummaryPattern  = regexp.MustCompile(`Job ([0-9a-fA-F-]{36}) summary`)
	totalPattern       = regexp.MustCompile(`Total Number [Oo]f Transfers:\s*(\d+)`)
	completedPattern   = regexp.MustCompile(`Number of (?:File )?Transfers Completed:\s*(\d+)`)
	failedPattern      = regexp.MustCompile(`Number of (?:File )?Transfers Failed:\s*(\d+)`)
	skippedPattern     = regexp.MustCompile(`Number of (?:File )?Transfers Skipped:\s*(\d+)`)
	bytesPattern       = regexp.MustCompile(`Total Number of Bytes Transferred:\s*(\d+)`)
	finalStatusPattern = regexp.MustCompile(`Final Job Status:\s*(\w+)`)
)

// finish resolves the parser into a summary, applying the text fallback
// when no EndOfJob message was seen.
func (p *Parser) finish() {
	if p.JobID == "" || p.Summary == nil {
		p.parseText()
	}
}

// parseText scrapes the retained non-JSON lines. Counter patterns may match
// several lines (file and folder breakdowns); counts accumulate.
func (p *Parser) parseText() {
	text := strings.Join(p.textLines, "\n")
	if text == "" {
		return
	}

	if p.JobID == "" {
		for _, pat := range []*regexp.Regexp{jobSummaryPattern, jobStartedPattern} {
			if m := pat.FindStringSubmatch(text); m != nil {
				p.JobID = m[1]
				break
			}
		}
	}
	if p.Summary != nil {
		return
	}

	s := &jobSummary{JobID: p.JobID}
	found := false
	grab := func(pat *regexp.Regexp, dst *int64) {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				*dst += n
				found = true
			}
		}
	}
	grab(totalPattern, &s.TotalTransfers)
	grab(completedPattern, &s.TransfersCompleted)
	grab(failedPattern, &s.TransfersFailed)
	grab(skippedPattern, &s.TransfersSkipped)
	grab(bytesPattern, &s.TotalBytesTransferred)
	if m := finalStatusPattern.FindStringSubmatch(text); m != nil {
		s.JobStatus = m[1]
		found = true
	}
	if found {
		p.Summary = s
	}
}

// status maps azcopy's job status (plus the failure counters) onto the
// transfer status recorded in the central CSV.
func (p *Parser) status(exitErr error) types.TransferStatus {
	if p.Summary == nil {
		return types.TransferFailed
	}
	switch p.Summary.JobStatus {
	case "Completed":
		if p.Summary.TransfersFailed > 0 || p.Summary.TransfersSkipped > 0 {
			return types.TransferCompletedWithErrors
		}
		if exitErr != nil {
			return types.TransferCompletedWithErrors
		}
		return types.TransferCompleted
	case "CompletedWithErrors", "CompletedWithSkipped", "CompletedWithErrorsAndSkipped":
		return types.TransferCompletedWithErrors
	default:
		return types.TransferFailed
	}
}
