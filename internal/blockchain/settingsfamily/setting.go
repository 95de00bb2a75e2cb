package settingsfamily

import (
	"errors"
	"strconv"

	"github.com/hyperledger/sawtooth-sdk-go/protobuf/setting_pb2"
	"google.golang.org/protobuf/proto"
)

// ParseValue finds the value of settingName in the serialized state entry.
// ok is false when the entry holds no such setting.
func ParseValue(data []byte, settingName string) (value string, ok bool, err error) {
	if len(data) == 0 {
		return "", false, nil
	}

	var setting setting_pb2.Setting
	if err := proto.Unmarshal(data, &setting); err != nil {
		return "", false, errors.New("failed to unmarshal the setting: " + err.Error())
	}

	for _, entry := range setting.GetEntries() {
		if entry.GetKey() == settingName {
			return entry.GetValue(), true, nil
		}
	}

	return "", false, nil
}

// ParseUint reads a non negative integer setting, missing settings yield 0.
func ParseUint(data []byte, settingName string) (uint64, error) {
	value, ok, err := ParseValue(data, settingName)
	if err != nil || !ok || value == "" {
		return 0, err
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid value of " + settingName + ": " + value)
	}
	return n, nil
}
