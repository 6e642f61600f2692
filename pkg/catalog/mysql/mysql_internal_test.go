package mysql

import (
	"testing"

	"github.com/pseudomuto/dbmover/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestOnUpdate(t *testing.T) {
	tests := []struct {
		extra    string
		expected *string
	}{
		{"", nil},
		{"auto_increment", nil},
		{"DEFAULT_GENERATED", nil},
		{"DEFAULT_GENERATED on update CURRENT_TIMESTAMP", utils.Ptr("CURRENT_TIMESTAMP")},
		{"on update current_timestamp()", utils.Ptr("current_timestamp()")},
		{"DEFAULT_GENERATED on update CURRENT_TIMESTAMP(3)", utils.Ptr("CURRENT_TIMESTAMP(3)")},
	}

	for _, tt := range tests {
		t.Run(tt.extra, func(t *testing.T) {
			require.Equal(t, tt.expected, onUpdate(tt.extra))
		})
	}
}
