package tui

// PrivacyNotice is shown in the privacy view and by `techfirst open privacy`.
const PrivacyNotice = `# Privacy

TechFirstSearch does not collect, store or process personal information.

## What is not collected

- Names, email addresses or phone numbers
- Location data
- Device identifiers or tracking data
- Usage analytics
- Cookies or similar tracking technologies

## How it works

Articles, papers and posts are aggregated from public RSS feeds and APIs and
served by the TechFirstSearch API. This client only asks that API for the
feed, for search results and for single articles.

## What stays on this machine

Read marks and recent searches are kept in a local database
(` + "`~/.techfirst/techfirst.db`" + ` by default). They never leave your computer.
Delete the file to forget them.

## Third-party content

Opening the original of an article fetches the source website, either inline
or in your browser. Those sites have their own privacy policies.

## No accounts

There is no registration and no login, so no personal data is stored on the
server side.

## Contact

privacy@techfirstsearch.com
`
