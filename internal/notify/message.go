package notify

import (
	"fmt"
	"time"
)

// smsBody renders the crisis-level SMS template.
func smsBody(userName, crisisLevel string, now time.Time) string {
	stamp := now.Format("2006-01-02 15:04:05")
	switch crisisLevel {
	case "critical":
		return fmt.Sprintf(`URGENT MENTAL HEALTH ALERT

%[1]s has indicated they may be in immediate crisis and expressed thoughts of self-harm or suicide.

This is an automated alert from their mental health companion app.

IMMEDIATE ACTION RECOMMENDED:
- Contact %[1]s immediately
- Encourage them to call emergency services (911)
- Consider calling emergency services yourself if you cannot reach them

Crisis resources:
- 988 Suicide & Crisis Lifeline: 988
- Emergency: 911
- Crisis Text Line: Text HOME to 741741

Time: %[2]s

This person trusts you. Please reach out to them now.`, userName, stamp)
	case "high":
		return fmt.Sprintf(`MENTAL HEALTH CONCERN ALERT

%[1]s has expressed concerning thoughts and may need support.

This is an automated alert from their mental health companion app.

RECOMMENDED ACTIONS:
- Check in with %[1]s when possible
- Offer emotional support and listen
- Encourage professional help if needed

Crisis resources if needed:
- 988 Suicide & Crisis Lifeline: 988
- Crisis Text Line: Text HOME to 741741

Time: %[2]s

Your support could make a difference.`, userName, stamp)
	default:
		return fmt.Sprintf(`MENTAL HEALTH CHECK-IN ALERT

%[1]s may be going through a difficult time and could benefit from support.

This is an automated alert from their mental health companion app.

SUGGESTED ACTIONS:
- Reach out to %[1]s when convenient
- Offer a listening ear
- Check in on their wellbeing

Time: %[2]s

Sometimes just knowing someone cares makes all the difference.`, userName, stamp)
	}
}

// emailSubject renders the crisis-level subject line.
func emailSubject(userName, crisisLevel string) string {
	switch crisisLevel {
	case "critical":
		return fmt.Sprintf("URGENT: Mental Health Crisis Alert for %s", userName)
	case "high":
		return fmt.Sprintf("Mental Health Concern Alert for %s", userName)
	default:
		return fmt.Sprintf("Mental Health Check-in for %s", userName)
	}
}

// emailBody reuses the SMS template with optional extra context appended.
func emailBody(userName, crisisLevel, additionalContext string, now time.Time) string {
	body := smsBody(userName, crisisLevel, now)
	if additionalContext != "" {
		body += "\n\nAdditional context:\n" + additionalContext
	}
	body += "\n\n--\nThis alert was generated automatically. If you believe it is an error, please still check on " + userName + " to be safe."
	return body
}
