/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config decodes and validates the JSON logger configuration of
// spec.md §6, adapted from the teacher's logger/config/model.go but
// reshaped around this module's appender/pattern vocabulary instead of
// logrus hook options.
package config

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"

	liberr "github.com/sabouaram/cmutil/cerrors"
)

// EnvConfigFile is the environment variable naming the configuration file,
// per spec.md §6.
const EnvConfigFile = "CMUTIL_LOG_CONFIG"

const (
	ErrorFileRead liberr.CodeError = iota + liberr.MinPkgLogger + 10
	ErrorDecode
	ErrorValidate
)

func init() {
	liberr.RegisterIdFctMessage(ErrorFileRead, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorFileRead:
		return "cannot read logger configuration file"
	case ErrorDecode:
		return "cannot decode logger configuration JSON"
	case ErrorValidate:
		return "logger configuration failed validation"
	}
	return ""
}

var validate = validator.New()

// AppenderConfig is one entry of the "appenders" array, carrying the union
// of fields every appender type may use; unused fields for a given type are
// simply left at their zero value.
type AppenderConfig struct {
	Type            string `json:"type" validate:"required,oneof=console file rollingfile socket"`
	Name            string `json:"name" validate:"required"`
	Pattern         string `json:"pattern"`
	Async           bool   `json:"async"`
	AsyncBufferSize int    `json:"asyncbuffersize" validate:"omitempty,min=10"`

	// Console
	UseStderr bool `json:"useStderr"`

	// File / RollingFile
	Filename string `json:"filename"`

	// RollingFile
	RollTerm    string `json:"rollterm" validate:"omitempty,oneof=year month date hour minute"`
	FilePattern string `json:"filepattern"`

	// Socket
	ListenPort int    `json:"listenport"`
	AcceptHost string `json:"accepthost"`
}

// AppenderRef is one resolved reference from a logger to an appender, the
// normalized form of the string / {ref,level} / array-of-either shapes
// spec.md §6 allows for "appenderref".
type AppenderRef struct {
	Ref   string
	Level string // optional override; empty means "use the logger's level"
}

// AppenderRefList decodes spec.md §6's "appenderref" polymorphic shape: a
// bare string, a single {ref, level?} object, or an array of either.
type AppenderRefList []AppenderRef

func (l *AppenderRefList) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*l = AppenderRefList{{Ref: asString}}
		return nil
	}

	var asObject struct {
		Ref   string `json:"ref"`
		Level string `json:"level"`
	}
	if err := json.Unmarshal(data, &asObject); err == nil && asObject.Ref != "" {
		*l = AppenderRefList{{Ref: asObject.Ref, Level: asObject.Level}}
		return nil
	}

	var asArray []json.RawMessage
	if err := json.Unmarshal(data, &asArray); err != nil {
		return ErrorDecode.Error(err)
	}

	out := make(AppenderRefList, 0, len(asArray))
	for _, raw := range asArray {
		var one AppenderRefList
		if err := one.UnmarshalJSON(raw); err != nil {
			return err
		}
		out = append(out, one...)
	}
	*l = out
	return nil
}

// LoggerConfig is one entry of the "loggers" array.
type LoggerConfig struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Level       string          `json:"level" validate:"required,oneof=TRACE DEBUG INFO WARN ERROR FATAL trace debug info warn error fatal"`
	Additivity  *bool           `json:"additivity"`
	AppenderRef AppenderRefList `json:"appenderref"`
}

// IsAdditive returns the configured additivity, defaulting to true per
// spec.md §6.
func (c LoggerConfig) IsAdditive() bool {
	return c.Additivity == nil || *c.Additivity
}

// IsRoot reports whether this entry configures the root logger.
func (c LoggerConfig) IsRoot() bool {
	return c.Type == "root" || c.Name == ""
}

// Configuration is the decoded, validated contents of a logger
// configuration file.
type Configuration struct {
	Appenders []AppenderConfig `json:"appenders" validate:"dive"`
	Loggers   []LoggerConfig   `json:"loggers" validate:"dive"`
}

type document struct {
	Configuration Configuration `json:"configuration"`
}

// Parse decodes and validates raw JSON into a Configuration. JSON keys are
// matched case-insensitively by encoding/json itself, satisfying spec.md
// §6's "keys are case-insensitive" requirement without extra code.
func Parse(raw []byte) (Configuration, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Configuration{}, ErrorDecode.Error(err)
	}

	cfg := doc.Configuration
	if len(cfg.Appenders) == 0 && len(cfg.Loggers) == 0 {
		// Some configuration files omit the "configuration" wrapper and put
		// appenders/loggers at the top level; tolerate both shapes.
		var flat Configuration
		if err := json.Unmarshal(raw, &flat); err == nil {
			cfg = flat
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return Configuration{}, ErrorValidate.Error(err)
	}

	return cfg, nil
}

// Load reads the file named by the CMUTIL_LOG_CONFIG environment variable
// and parses it. Callers are expected to fall back to a console-only
// default configuration on any error, per spec.md §6.
func Load() (Configuration, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return Configuration{}, ErrorFileRead.Error(nil)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, ErrorFileRead.Error(err)
	}

	return Parse(raw)
}
