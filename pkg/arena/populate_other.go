//go:build unix && !linux

package arena

const populateFlag = 0
