// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

import "fmt"

// AdsState is the device state reported by ReadState/WriteControl.
type AdsState uint16

const (
	ADSStateInvalid     AdsState = 0
	ADSStateIdle        AdsState = 1
	ADSStateReset       AdsState = 2
	ADSStateInit        AdsState = 3
	ADSStateStart       AdsState = 4
	ADSStateRun         AdsState = 5
	ADSStateStop        AdsState = 6
	ADSStateSaveCfg     AdsState = 7
	ADSStateLoadCfg     AdsState = 8
	ADSStatePowerFail   AdsState = 9
	ADSStatePowerGood   AdsState = 10
	ADSStateError       AdsState = 11
	ADSStateShutdown    AdsState = 12
	ADSStateSuspend     AdsState = 13
	ADSStateResume      AdsState = 14
	ADSStateConfig      AdsState = 15
	ADSStateReconfig    AdsState = 16
	ADSStateStopping    AdsState = 17
	ADSStateIncompatible AdsState = 18
	ADSStateException   AdsState = 19
)

var adsStateNames = map[AdsState]string{
	ADSStateInvalid:      "INVALID",
	ADSStateIdle:         "IDLE",
	ADSStateReset:        "RESET",
	ADSStateInit:         "INIT",
	ADSStateStart:        "START",
	ADSStateRun:          "RUN",
	ADSStateStop:         "STOP",
	ADSStateSaveCfg:      "SAVECFG",
	ADSStateLoadCfg:      "LOADCFG",
	ADSStatePowerFail:    "POWERFAILURE",
	ADSStatePowerGood:    "POWERGOOD",
	ADSStateError:        "ERROR",
	ADSStateShutdown:     "SHUTDOWN",
	ADSStateSuspend:      "SUSPEND",
	ADSStateResume:       "RESUME",
	ADSStateConfig:       "CONFIG",
	ADSStateReconfig:     "RECONFIG",
	ADSStateStopping:     "STOPPING",
	ADSStateIncompatible: "INCOMPATIBLE",
	ADSStateException:    "EXCEPTION",
}

func (s AdsState) String() string {
	if name, ok := adsStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AdsState(%d)", uint16(s))
}

// ParseAdsState decodes a wire state value, failing on values outside the
// 0-19 defined range.
func ParseAdsState(v uint16) (AdsState, error) {
	if v > uint16(ADSStateException) {
		return 0, fmt.Errorf("ams: unknown ads state %d", v)
	}
	return AdsState(v), nil
}
